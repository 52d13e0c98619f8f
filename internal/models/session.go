package models

import "time"

// Selection holds the desk/date the user is currently looking at in the UI.
type Selection struct {
	Desk int    `json:"desk,omitempty"`
	Date string `json:"date,omitempty"`
}

// Session is the per-interaction context constructed at login and passed to
// every operation instead of ambient shared state.
type Session struct {
	Token           string    `json:"token"`
	StudentID       string    `json:"student_id"`
	UserName        string    `json:"user_name"`
	Role            Role      `json:"role"`
	IsAuthenticated bool      `json:"is_authenticated"`
	Selection       Selection `json:"selection"`
	CreatedAt       time.Time `json:"created_at"`
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.IsAuthenticated && s.Role == RoleAdmin
}
