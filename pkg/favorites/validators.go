package favorites

// Query params and payloads for favorite endpoints.
type ListFavoritesQuery struct {
	UserID string `query:"user_id" json:"user_id" validate:"required"`
}

type CreateFavoritePayload struct {
	UserID string `json:"user_id" validate:"required"`
	BookID string `json:"book_id" validate:"required"`
}
