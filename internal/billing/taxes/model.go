// Package taxes manages tax rates and resolves a document's tax selection to a rate.
package taxes

import "time"

// Tax is a named rate stored as a fraction (0.0825 for 8.25%).
type Tax struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Rate      float64   `json:"rate"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
