package model

// UserCredential is a stored login credential. Rows are created by the
// users provisioning command and are read-only everywhere else.
type UserCredential struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// Principal is the authenticated identity attached to a request after
// token verification.
type Principal struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
