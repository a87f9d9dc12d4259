package handlers

import "github.com/serroba/swiftlink/internal/links"

// LinkView is a stored link plus its working short URL.
type LinkView struct {
	ID          string   `doc:"Link identifier"               json:"id"`
	OriginalURL string   `doc:"The normalized original URL"   example:"https://example.com"          json:"originalUrl"`
	ShortCode   string   `doc:"The short code"                example:"ab12cd"                       json:"shortCode"`
	ShortURL    string   `doc:"Working short link"            example:"http://localhost:8888/?u=ab12cd" json:"shortUrl"`
	CreatedAt   int64    `doc:"Creation time, epoch millis"   json:"createdAt"`
	Clicks      int64    `doc:"Number of times followed"      json:"clicks"`
	Tags        []string `doc:"AI-generated tags"             json:"tags,omitempty"`
	AISummary   string   `doc:"AI-generated five-word summary" json:"aiSummary,omitempty"`
	Category    string   `doc:"AI-generated category"         json:"category,omitempty"`
}

// PageBody is the collection as rendered for a client.
type PageBody struct {
	Count int        `doc:"Number of links" json:"count"`
	Links []LinkView `doc:"Links, newest first" json:"links"`
}

// ResolveRequest is the request for the root page.
type ResolveRequest struct {
	Code string `doc:"Short code to resolve" example:"ab12cd" query:"u"`
}

// ResolveResponse either redirects to the original URL or carries the collection.
type ResolveResponse struct {
	Status   int
	Location string `doc:"Original URL when redirecting" header:"Location"`
	Body     *PageBody
}

// ListLinksResponse is the response for listing links.
type ListLinksResponse struct {
	Body PageBody
}

// CreateLinkRequest is the request body for shortening a URL.
type CreateLinkRequest struct {
	Body struct {
		URL string `doc:"The URL to shorten; scheme defaults to https" example:"google.com/article" json:"url" minLength:"1"`
	}
}

// CreateLinkResponse is the response for a successfully created link.
type CreateLinkResponse struct {
	Location string `doc:"The short URL" header:"Location"`
	Body     LinkView
}

// LinkIDRequest addresses a link by id.
type LinkIDRequest struct {
	ID string `doc:"Link identifier" path:"id"`
}

// VisitLinkResponse is the response for an explicit visit.
type VisitLinkResponse struct {
	Body LinkView
}

func newPageBody(c links.Collection, baseURL string) *PageBody {
	views := make([]LinkView, 0, len(c))
	for _, l := range c {
		views = append(views, newLinkView(l, baseURL))
	}

	return &PageBody{Count: len(views), Links: views}
}

func newLinkView(l links.ShortenedLink, baseURL string) LinkView {
	return LinkView{
		ID:          l.ID,
		OriginalURL: l.OriginalURL,
		ShortCode:   l.ShortCode,
		ShortURL:    ShortURL(baseURL, l.ShortCode),
		CreatedAt:   l.CreatedAt,
		Clicks:      l.Clicks,
		Tags:        l.Tags,
		AISummary:   l.AISummary,
		Category:    l.Category,
	}
}
