package domain

// Page is one slice of a listing. Next is nil once the listing is exhausted.
type Page[T any] struct {
	Items []T     `json:"items"`
	Next  *string `json:"next"`
}
