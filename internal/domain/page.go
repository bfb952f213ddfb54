package domain

// MaxPerPage caps caller-supplied page sizes.
const MaxPerPage = 100

// Default page sizes per listing surface.
const (
	GalleryPerPage  = 12
	CategoryPerPage = 20
	TagPerPage      = 30
)

// Page is one page of a listing plus the metadata needed to build
// prev/next navigation.
type Page[T any] struct {
	Items      []T   `json:"data"`
	TotalCount int64 `json:"total"`
	Page       int   `json:"current_page"`
	PerPage    int   `json:"per_page"`
}

// LastPage returns the highest page number that contains data.
// An empty result still has one (empty) page.
func (p *Page[T]) LastPage() int {
	if p.TotalCount == 0 || p.PerPage == 0 {
		return 1
	}
	last := int((p.TotalCount + int64(p.PerPage) - 1) / int64(p.PerPage))
	if last < 1 {
		last = 1
	}
	return last
}

// HasNext reports whether a following page exists.
func (p *Page[T]) HasNext() bool {
	return p.Page < p.LastPage()
}

// HasPrev reports whether a preceding page exists.
func (p *Page[T]) HasPrev() bool {
	return p.Page > 1
}
