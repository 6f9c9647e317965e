package models

import "strconv"

// Movie is a catalog entry. The catalog is read-only here.
type Movie struct {
	ID    int64  `json:"id" db:"id"`
	Title string `json:"title" db:"title"`
	Year  *int32 `json:"year" db:"year"`
}

// Symbol is the item symbol favorites use to reference the movie.
func (m *Movie) Symbol() string {
	return strconv.FormatInt(m.ID, 10)
}

// MovieOption is a movie offered in the favorite picker.
type MovieOption struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Year  *int32 `json:"year"`
}
