package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/swiftlink/internal/analytics"
	"github.com/serroba/swiftlink/internal/annotation"
	"github.com/serroba/swiftlink/internal/links"
	"go.uber.org/zap"
)

// LinkService is the link store operations the HTTP layer drives.
type LinkService interface {
	Resolve(ctx context.Context, code string) links.RedirectOutcome
	List(ctx context.Context) links.Collection
	Create(ctx context.Context, rawURL string) (links.ShortenedLink, error)
	Delete(ctx context.Context, id string)
	Visit(ctx context.Context, id string) (links.ShortenedLink, error)
}

// LinkHandler handles link shortening and resolution.
type LinkHandler struct {
	service    LinkService
	baseURL    string
	publishers analytics.Publishers
	logger     *zap.Logger
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(
	service LinkService,
	baseURL string,
	publishers analytics.Publishers,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		service:    service,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		publishers: publishers,
		logger:     logger,
	}
}

// ShortURL builds the working short link for code: <base>/?u=<code>.
func ShortURL(baseURL, code string) string {
	return fmt.Sprintf("%s/?u=%s", strings.TrimSuffix(baseURL, "/"), url.QueryEscape(code))
}

// Resolve redirects when the request carries a known u=<code>, and otherwise
// renders the collection.
func (h *LinkHandler) Resolve(ctx context.Context, req *ResolveRequest) (*ResolveResponse, error) {
	outcome := h.service.Resolve(ctx, req.Code)
	if outcome.Redirect() {
		h.publishResolved(ctx, outcome.Link, analytics.SourceRedirect)

		return &ResolveResponse{
			Status:   http.StatusFound,
			Location: outcome.Target,
		}, nil
	}

	return &ResolveResponse{
		Status: http.StatusOK,
		Body:   newPageBody(h.service.List(ctx), h.baseURL),
	}, nil
}

func (h *LinkHandler) ListLinks(ctx context.Context, _ *struct{}) (*ListLinksResponse, error) {
	return &ListLinksResponse{Body: *newPageBody(h.service.List(ctx), h.baseURL)}, nil
}

func (h *LinkHandler) CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error) {
	link, err := h.service.Create(ctx, req.Body.URL)
	if err != nil {
		var verr *annotation.ValidationError

		switch {
		case errors.As(err, &verr):
			return nil, huma.Error400BadRequest(verr.Error())
		case errors.Is(err, links.ErrSubmissionInFlight):
			return nil, huma.Error409Conflict("this URL is already being shortened")
		default:
			return nil, huma.Error500InternalServerError("failed to create link")
		}
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.LinkCreatedEvent{
		LinkID:      link.ID,
		Code:        link.ShortCode,
		OriginalURL: link.OriginalURL,
		Category:    link.Category,
		Tags:        link.Tags,
		CreatedAt:   time.UnixMilli(link.CreatedAt),
		ClientIP:    meta.ClientIP,
		UserAgent:   meta.UserAgent,
	}

	if err := h.publishers.LinkCreated(ctx, event); err != nil {
		h.logger.Error("failed to publish analytics event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	view := newLinkView(link, h.baseURL)

	resp := &CreateLinkResponse{}
	resp.Location = view.ShortURL
	resp.Body = view

	return resp, nil
}

func (h *LinkHandler) DeleteLink(ctx context.Context, req *LinkIDRequest) (*struct{}, error) {
	h.service.Delete(ctx, req.ID)

	return nil, nil
}

func (h *LinkHandler) VisitLink(ctx context.Context, req *LinkIDRequest) (*VisitLinkResponse, error) {
	link, err := h.service.Visit(ctx, req.ID)
	if err != nil {
		if errors.Is(err, links.ErrNotFound) {
			return nil, huma.Error404NotFound("link not found")
		}

		return nil, huma.Error500InternalServerError("failed to record visit")
	}

	h.publishResolved(ctx, &link, analytics.SourceVisit)

	return &VisitLinkResponse{Body: newLinkView(link, h.baseURL)}, nil
}

func (h *LinkHandler) publishResolved(ctx context.Context, link *links.ShortenedLink, source analytics.ResolveSource) {
	meta := RequestMetaFromContext(ctx)
	event := &analytics.LinkResolvedEvent{
		LinkID:     link.ID,
		Code:       link.ShortCode,
		Source:     source,
		Clicks:     link.Clicks,
		ResolvedAt: time.Now(),
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
		Referrer:   meta.Referrer,
	}

	if err := h.publishers.LinkResolved(ctx, event); err != nil {
		h.logger.Error("failed to publish resolve event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}
}
