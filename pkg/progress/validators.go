package progress

// Query params and payloads for reading progress endpoints.
type ListProgressQuery struct {
	UserID string  `query:"user_id" json:"user_id" validate:"required"`
	BookID *string `query:"book_id" json:"book_id,omitempty"`
}

type SaveProgressPayload struct {
	UserID      string `json:"user_id" validate:"required"`
	BookID      string `json:"book_id" validate:"required"`
	CurrentPage int    `json:"current_page" validate:"min=0"`
	TotalPages  int    `json:"total_pages" validate:"required,min=1,gtefield=CurrentPage"`
}
