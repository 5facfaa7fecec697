package models

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page selects a window of a listing sorted newest first.
type Page struct {
	Offset int
	Limit  int
}

// Normalize clamps the page to valid bounds.
func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}
