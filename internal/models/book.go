package models

// Book is a catalog title as served by the library API. AvailableQuantity is
// maintained by the server as loans are opened and returned.
type Book struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	Author            string `json:"author,omitempty"`
	ISBN              string `json:"isbn,omitempty"`
	Genre             string `json:"genre,omitempty"`
	Pages             int    `json:"pages,omitempty"`
	TotalQuantity     int    `json:"totalQuantity"`
	AvailableQuantity int    `json:"availableQuantity"`
	Summary           string `json:"summary,omitempty"`
	ImageURL          string `json:"imageUrl,omitempty"`
	Active            bool   `json:"active"`
}

// Available reports whether at least one copy can be lent.
func (b Book) Available() bool {
	return b.AvailableQuantity > 0
}

// CreateBookRequest represents the request to create a new book
type CreateBookRequest struct {
	Title         string `json:"title" binding:"required" validate:"required,max=255"`
	Author        string `json:"author,omitempty" validate:"max=255"`
	ISBN          string `json:"isbn,omitempty" validate:"max=20"`
	Genre         string `json:"genre,omitempty" validate:"max=100"`
	Pages         int    `json:"pages,omitempty" validate:"gte=0"`
	TotalQuantity int    `json:"totalQuantity" validate:"gte=0"`
	Summary       string `json:"summary,omitempty" validate:"max=5000"`
	ImageURL      string `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

// UpdateBookRequest is a partial update; nil fields are left untouched.
type UpdateBookRequest struct {
	Title         *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Author        *string `json:"author,omitempty" validate:"omitempty,max=255"`
	ISBN          *string `json:"isbn,omitempty" validate:"omitempty,max=20"`
	Genre         *string `json:"genre,omitempty" validate:"omitempty,max=100"`
	Pages         *int    `json:"pages,omitempty" validate:"omitempty,gte=0"`
	TotalQuantity *int    `json:"totalQuantity,omitempty" validate:"omitempty,gte=0"`
	Summary       *string `json:"summary,omitempty" validate:"omitempty,max=5000"`
	ImageURL      *string `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Active        *bool   `json:"active,omitempty"`
}
