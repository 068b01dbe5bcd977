package models

// AccountProfile is the slice of the external identity directory this service
// consumes. Accounts are owned elsewhere; only the opaque 24-char id is stored
// locally.
type AccountProfile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Email        string `json:"email"`
}

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
