package clients

// SaveClientRequest is the create/update payload.
type SaveClientRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"required,max=100"`
	Email     string  `json:"email" validate:"required,email,max=254"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Address   *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// ListClientsRequest filters a tenant's clients.
type ListClientsRequest struct {
	OwnerID string
	Search  string
	Limit   int
	Offset  int
}
