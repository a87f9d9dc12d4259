package analytics

import "time"

const (
	TopicLinkCreated  = "link.created"
	TopicLinkResolved = "link.resolved"
)

// ResolveSource tells how a link was followed.
type ResolveSource string

const (
	SourceRedirect ResolveSource = "redirect"
	SourceVisit    ResolveSource = "visit"
)

// LinkCreatedEvent is emitted when a link is shortened and annotated.
type LinkCreatedEvent struct {
	LinkID      string    `json:"linkId"`
	Code        string    `json:"code"`
	OriginalURL string    `json:"originalUrl"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	ClientIP    string    `json:"clientIp"`
	UserAgent   string    `json:"userAgent"`
}

// LinkResolvedEvent is emitted when a link is followed, either through a
// u=<code> redirect or an explicit visit.
type LinkResolvedEvent struct {
	LinkID     string        `json:"linkId"`
	Code       string        `json:"code"`
	Source     ResolveSource `json:"source"`
	Clicks     int64         `json:"clicks"`
	ResolvedAt time.Time     `json:"resolvedAt"`
	ClientIP   string        `json:"clientIp"`
	UserAgent  string        `json:"userAgent"`
	Referrer   string        `json:"referrer"`
}
