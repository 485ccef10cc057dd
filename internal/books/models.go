package books

import "time"

// Book is a catalog entry. ISBN is optional and unique when present.
type Book struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	PublicationYear *int      `json:"publication_year,omitempty"`
	ISBN            *string   `json:"isbn,omitempty"`
	Available       bool      `json:"available"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateBookRequest carries the fields a librarian supplies for a new or
// updated catalog entry.
type CreateBookRequest struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	PublicationYear *int   `json:"publication_year,omitempty"`
}
