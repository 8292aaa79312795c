// Package users keeps the list of known shoppers and the current selection.
package users

import (
	"errors"
	"strings"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var ErrInvalidUser = errors.New("user name is required")

// DefaultUser is created when the directory starts empty.
var DefaultUser = domain.User{ID: 1, Name: "Juan Pérez", Email: "juan@example.com"}

// Directory is not safe for concurrent use.
type Directory struct {
	users   []domain.User
	current *domain.User
}

func New(users []domain.User, current *domain.User) *Directory {
	d := &Directory{users: append([]domain.User(nil), users...)}
	if current != nil {
		c := *current
		d.current = &c
	}
	return d
}

// EnsureDefaults adds DefaultUser to an empty directory and selects the first
// user when nothing is selected. It reports which of the two happened.
func (d *Directory) EnsureDefaults() (seededUsers, selected bool) {
	if len(d.users) == 0 {
		d.users = append(d.users, DefaultUser)
		seededUsers = true
	}
	if d.current == nil {
		first := d.users[0]
		d.current = &first
		selected = true
	}
	return seededUsers, selected
}

// Create adds a user with id max+1. Emails are not checked for uniqueness.
func (d *Directory) Create(name, email string) (domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.User{}, ErrInvalidUser
	}

	maxID := 0
	for _, u := range d.users {
		maxID = max(maxID, u.ID)
	}

	u := domain.User{ID: maxID + 1, Name: name, Email: strings.TrimSpace(email)}
	d.users = append(d.users, u)
	return u, nil
}

// Select makes the user with id current. An unknown id leaves the current
// user unchanged and returns false.
func (d *Directory) Select(id int) bool {
	u, ok := d.Get(id)
	if !ok {
		return false
	}
	d.current = &u
	return true
}

func (d *Directory) Current() (domain.User, bool) {
	if d.current == nil {
		return domain.User{}, false
	}
	return *d.current, true
}

func (d *Directory) Get(id int) (domain.User, bool) {
	for _, u := range d.users {
		if u.ID == id {
			return u, true
		}
	}
	return domain.User{}, false
}

func (d *Directory) List() []domain.User {
	return append([]domain.User(nil), d.users...)
}
