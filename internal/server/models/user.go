package models

// User is the authoritative user record supplied by the identity provider.
// It is read-only from the token service's point of view.
type User struct {
	ID           string   `json:"id"`
	Username     string   `json:"username"`
	PasswordHash string   `json:"password"`
	Firstname    string   `json:"firstname"`
	Lastname     string   `json:"lastname"`
	Email        string   `json:"email"`
	Status       string   `json:"status"`
	Roles        []string `json:"roles"`
}
