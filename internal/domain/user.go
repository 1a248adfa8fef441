package domain

import "strings"

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAlumni  UserRole = "alumni"
	RoleAdmin   UserRole = "admin"
)

// User is the association member a session belongs to.
type User struct {
	ID        string   `json:"id"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email,omitempty"`
	Role      UserRole `json:"role"`
}

// FullName joins first and last name, falling back to the ID.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.ID
	}
	return name
}

// CurrentUser is what the auth layer hands over for the request in flight.
type CurrentUser struct {
	User
	Authenticated bool
}

// Active reports whether state machines may be run for this user.
func (c CurrentUser) Active() bool {
	return c.Authenticated && c.ID != ""
}
