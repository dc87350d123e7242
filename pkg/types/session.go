package types

import "strings"

// Session identifies the patient a request acts for. The username is a trusted
// claim; nothing verifies it.
type Session struct {
	Username string `json:"username"`
}

func NewSession(username string) Session {
	return Session{Username: strings.TrimSpace(username)}
}

func (s Session) Valid() bool {
	return s.Username != ""
}

// Key is the case-insensitive form of the username. Everything stored per
// patient is keyed by it.
func (s Session) Key() string {
	return strings.ToLower(strings.TrimSpace(s.Username))
}
