// internal/core/domain/user.go
package domain

// AppUser is the session identity produced by the auth gateway. It lives in
// memory for the duration of the session and is cleared on sign-out.
type AppUser struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}
