package annotation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single annotation call.
const DefaultTimeout = 10 * time.Second

// Status tells whether a result came from the model or is the fallback.
type Status string

const (
	StatusOK       Status = "ok"
	StatusFallback Status = "fallback"
)

// Result is the annotation attached to a link.
type Result struct {
	Tags     []string `json:"tags"`
	Summary  string   `json:"summary"`
	Category string   `json:"category"`
	Status   Status   `json:"-"`
}

// Fallback is the fixed result used whenever the model cannot be reached or
// answers with something unusable.
func Fallback() Result {
	return Result{
		Tags:     []string{"Link"},
		Summary:  "External Website",
		Category: "General",
		Status:   StatusFallback,
	}
}

// Generator produces a JSON document for a prompt. Implementations declare
// the response schema to the model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client annotates URLs and never fails.
type Client struct {
	generator Generator
	timeout   time.Duration
	logger    *zap.Logger
}

// NewClient creates an annotation client. A non-positive timeout selects DefaultTimeout.
func NewClient(generator Generator, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		generator: generator,
		timeout:   timeout,
		logger:    logger,
	}
}

// Prompt builds the instruction sent for url.
func Prompt(url string) string {
	return fmt.Sprintf(`Analyze this URL string: %q.
I need you to categorize it, generate 3 relevant tags, and a very short 5-word summary `+
		`of what this website likely contains based on the domain and path.`, url)
}

// Analyze annotates url. The call is detached from ctx cancellation and
// bounded by the client timeout; every failure yields Fallback().
func (c *Client) Analyze(ctx context.Context, url string) Result {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	result, err := c.analyze(ctx, url)
	if err != nil {
		c.logger.Warn("annotation failed, using fallback",
			zap.String("url", url),
			zap.Error(err),
		)

		return Fallback()
	}

	return result
}

type generated struct {
	text string
	err  error
}

func (c *Client) analyze(ctx context.Context, url string) (Result, error) {
	done := make(chan generated, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- generated{err: fmt.Errorf("generator panic: %v", r)}
			}
		}()

		text, err := c.generator.Generate(ctx, Prompt(url))
		done <- generated{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case g := <-done:
		if g.err != nil {
			return Result{}, g.err
		}

		return Parse(g.text)
	}
}

// Parse validates a model response against the annotation schema.
func Parse(text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, errors.New("empty response")
	}

	var payload struct {
		Tags     *[]string `json:"tags"`
		Summary  *string   `json:"summary"`
		Category *string   `json:"category"`
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&payload); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Result{}, errors.New("trailing data after response")
	}

	switch {
	case payload.Tags == nil:
		return Result{}, errors.New("missing tags")
	case payload.Summary == nil:
		return Result{}, errors.New("missing summary")
	case payload.Category == nil:
		return Result{}, errors.New("missing category")
	}

	tags := make([]string, 0, len(*payload.Tags))

	for _, t := range *payload.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	if len(tags) == 0 {
		return Result{}, errors.New("no tags")
	}

	summary := strings.TrimSpace(*payload.Summary)
	category := strings.TrimSpace(*payload.Category)

	if summary == "" || category == "" {
		return Result{}, errors.New("blank summary or category")
	}

	return Result{
		Tags:     tags,
		Summary:  summary,
		Category: category,
		Status:   StatusOK,
	}, nil
}
