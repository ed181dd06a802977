package services

import "errors"

var (
	// ErrEmailExists is returned by Signup when the email is already registered.
	ErrEmailExists = errors.New("email already exists")
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is returned when an email/password pair does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
