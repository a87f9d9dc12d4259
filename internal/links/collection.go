package links

import "github.com/samber/lo"

// AddLink returns a new collection with link prepended.
func AddLink(c Collection, link ShortenedLink) Collection {
	out := make(Collection, 0, len(c)+1)
	out = append(out, link)

	return append(out, c...)
}

// RemoveLink returns a new collection without the link identified by id.
func RemoveLink(c Collection, id string) Collection {
	return lo.Filter(c, func(l ShortenedLink, _ int) bool {
		return l.ID != id
	})
}

// RecordVisit returns a new collection with the clicks of id incremented.
func RecordVisit(c Collection, id string) Collection {
	return lo.Map(c, func(l ShortenedLink, _ int) ShortenedLink {
		if l.ID == id {
			l.Clicks++
		}

		return l
	})
}

// FindByCode returns the first link with the given short code. Collections
// are newest-first, so on duplicate codes the most recently created wins.
func FindByCode(c Collection, code string) (ShortenedLink, bool) {
	return lo.Find(c, func(l ShortenedLink) bool {
		return l.ShortCode == code
	})
}

// FindByID returns the link with the given id.
func FindByID(c Collection, id string) (ShortenedLink, bool) {
	return lo.Find(c, func(l ShortenedLink) bool {
		return l.ID == id
	})
}

// Codes returns the set of short codes in use.
func Codes(c Collection) map[string]struct{} {
	return lo.SliceToMap(c, func(l ShortenedLink) (string, struct{}) {
		return l.ShortCode, struct{}{}
	})
}
