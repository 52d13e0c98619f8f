package models

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	StudentID string `json:"student_id"`
	Password  string `json:"-"`
	Name      string `json:"name"`
}
