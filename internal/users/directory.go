// Package users resolves client handles to internal identities.
package users

import (
	"cybermeme-backend/internal/domain"
)

// Directory looks up users by handle. An unknown handle returns false.
type Directory interface {
	Lookup(handle string) (domain.User, bool)
}

// StaticDirectory is a Directory fixed at construction time.
type StaticDirectory struct {
	users map[string]domain.User
}

// NewStaticDirectory copies the given users into a read-only directory.
func NewStaticDirectory(users []domain.User) *StaticDirectory {
	d := &StaticDirectory{users: make(map[string]domain.User, len(users))}
	for _, u := range users {
		d.users[u.Handle] = u
	}
	return d
}

// DefaultUsers returns the seeded marketplace accounts.
func DefaultUsers() []domain.User {
	return []domain.User{
		{Handle: "neonhacker", ID: 1, Credits: 1000},
		{Handle: "cybershadow", ID: 2, Credits: 1000},
	}
}

// Lookup implements Directory.
func (d *StaticDirectory) Lookup(handle string) (domain.User, bool) {
	if handle == "" {
		return domain.User{}, false
	}
	u, ok := d.users[handle]
	return u, ok
}
