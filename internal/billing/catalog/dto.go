package catalog

// SaveItemRequest is the create/update payload for a service or part.
type SaveItemRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description"`
	Price       float64  `json:"price" validate:"gte=0"`
	Cost        *float64 `json:"cost,omitempty" validate:"omitempty,gte=0"`
	ImageURL    *string  `json:"image_url,omitempty" validate:"omitempty,url"`
}

// MatchView is the display enrichment attached to a line item.
type MatchView struct {
	Kind     Kind    `json:"kind"`
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ImageURL *string `json:"image_url,omitempty"`
}

// NewMatchView projects a matched item.
func NewMatchView(item Item) *MatchView {
	return &MatchView{Kind: item.Kind, ID: item.ID, Name: item.Name, ImageURL: item.ImageURL}
}
