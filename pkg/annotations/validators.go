package annotations

// Query params and payloads for annotation endpoints.
type ListAnnotationsQuery struct {
	UserID string  `query:"user_id" json:"user_id" validate:"required"`
	BookID *string `query:"book_id" json:"book_id,omitempty"`
}

type CreateAnnotationPayload struct {
	UserID       string  `json:"user_id" validate:"required"`
	BookID       string  `json:"book_id" validate:"required"`
	PageNumber   int     `json:"page_number" validate:"required,min=1"`
	SelectedText string  `json:"selected_text" validate:"required,max=2000"`
	Note         *string `json:"note,omitempty" validate:"omitempty,max=5000"`
	Color        string  `json:"color" default:"yellow" validate:"oneof=yellow green blue pink"`
}

type UpdateAnnotationPayload struct {
	PageNumber   *int    `json:"page_number,omitempty" validate:"omitempty,min=1"`
	SelectedText *string `json:"selected_text,omitempty" validate:"omitempty,max=2000"`
	Note         *string `json:"note,omitempty" validate:"omitempty,max=5000"`
	Color        *string `json:"color,omitempty" validate:"omitempty,oneof=yellow green blue pink"`
}
