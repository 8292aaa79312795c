package shop

import (
	"context"
	"fmt"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/notify"
	"github.com/joao-fontenele/storefront/internal/storage"
)

func (s *Shop) Users() []domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users.List()
}

func (s *Shop) CurrentUser() (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users.Current()
}

func (s *Shop) CreateUser(ctx context.Context, name, email string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.users.Create(name, email)
	if err != nil {
		s.notify(ctx, notify.Warning, "User name is required")
		return domain.User{}, err
	}
	if err := s.persist(ctx, storage.KeyUsers); err != nil {
		return u, err
	}

	s.notify(ctx, notify.Success, "User created")
	return u, nil
}

// SelectUser makes id the current user. An unknown id changes nothing.
func (s *Shop) SelectUser(ctx context.Context, id int) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.users.Select(id) {
		return domain.User{}, fmt.Errorf("%w: %d", ErrUserNotFound, id)
	}
	u, _ := s.users.Current()
	if err := s.persist(ctx, storage.KeyCurrentUser); err != nil {
		return u, err
	}

	s.notify(ctx, notify.Success, "User switched")
	return u, nil
}
