// Package catalog manages the shared library of services and parts and
// matches free-form line item descriptions back to library entries.
package catalog

import "time"

// Kind distinguishes services from parts.
type Kind string

const (
	KindService Kind = "service"
	KindPart    Kind = "part"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindService || k == KindPart
}

// Item is a service or part. Cost is only set for parts.
type Item struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Cost        *float64  `json:"cost,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot is the full catalog, services first.
type Snapshot struct {
	Services []Item `json:"services"`
	Parts    []Item `json:"parts"`
}

// Items returns services followed by parts.
func (s Snapshot) Items() []Item {
	out := make([]Item, 0, len(s.Services)+len(s.Parts))
	out = append(out, s.Services...)
	return append(out, s.Parts...)
}
