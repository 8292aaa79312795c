// Package shop is the application controller. It owns the catalog, cart and
// user directory, persists them after every mutation and orchestrates
// checkout against the payments service.
package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/notify"
	"github.com/joao-fontenele/storefront/internal/storage"
	"github.com/joao-fontenele/storefront/internal/telemetry"
	"github.com/joao-fontenele/storefront/internal/users"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")
)

// PaymentService is the remote side of checkout and the payment history.
type PaymentService interface {
	SubmitOrder(ctx context.Context, order domain.Order) (domain.Receipt, error)
	ListPayments(ctx context.Context) ([]domain.Payment, error)
	ListInvoices(ctx context.Context) ([]domain.Invoice, error)
}

// EventPublisher receives an event after each successful checkout.
type EventPublisher interface {
	PublishPaymentCompleted(ctx context.Context, event domain.PaymentCompletedEvent) error
}

type Deps struct {
	Store     storage.Store
	Payments  PaymentService
	Publisher EventPublisher
	Metrics   *telemetry.ShopMetrics
	Logger    *slog.Logger
	Now       func() time.Time

	CatalogOptions []catalog.Option
}

// Shop is safe for concurrent use. Mutations are serialised; calls to the
// payments service run without holding the lock.
type Shop struct {
	mu sync.Mutex

	store     storage.Store
	payments  PaymentService
	publisher EventPublisher
	metrics   *telemetry.ShopMetrics
	logger    *slog.Logger
	now       func() time.Time

	catalog       *catalog.Catalog
	cart          *cart.Cart
	users         *users.Directory
	notifications *notify.Center

	draftOrderID string
	lastOrderAt  time.Time
	checkingOut  bool
}

// Open loads persisted state, seeds the default catalog and user when they
// are missing and persists whatever was seeded.
func Open(ctx context.Context, deps Deps) (*Shop, error) {
	if deps.Store == nil {
		return nil, errors.New("shop: store is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("shop: payments service is required")
	}

	s := &Shop{
		store:     deps.Store,
		payments:  deps.Payments,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       deps.Now,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.notifications = notify.NewCenter(s.now)

	var (
		products    []domain.Product
		lines       []domain.CartLineItem
		userList    []domain.User
		currentUser *domain.User
	)
	for key, dst := range map[string]any{
		storage.KeyProducts:    &products,
		storage.KeyCart:        &lines,
		storage.KeyUsers:       &userList,
		storage.KeyCurrentUser: &currentUser,
	} {
		if err := s.load(ctx, key, dst); err != nil {
			return nil, err
		}
	}

	s.catalog = catalog.New(products, deps.CatalogOptions...)
	s.cart = cart.New(s.catalog, lines)
	s.users = users.New(userList, currentUser)

	var seeded []string
	if s.catalog.SeedDefaults() {
		seeded = append(seeded, storage.KeyProducts)
	}
	if s.cart.Reconcile() {
		s.logger.Warn("cart did not match the catalog and was adjusted")
		seeded = append(seeded, storage.KeyCart)
	}
	seededUsers, selected := s.users.EnsureDefaults()
	if seededUsers {
		seeded = append(seeded, storage.KeyUsers)
	}
	if selected {
		seeded = append(seeded, storage.KeyCurrentUser)
	}
	if err := s.persist(ctx, seeded...); err != nil {
		return nil, err
	}

	s.logger.Info("shop state loaded",
		"products", s.catalog.Len(),
		"cart_lines", s.cart.Len(),
		"seeded", seeded,
	)
	return s, nil
}

// load treats a malformed stored value as absent so the shop starts from an
// empty collection instead of refusing to start.
func (s *Shop) load(ctx context.Context, key string, dst any) error {
	_, err := s.store.Load(ctx, key, dst)
	if errors.Is(err, storage.ErrMalformed) {
		s.logger.Warn("discarding malformed stored value", "key", key, "error", err)
		reflect.ValueOf(dst).Elem().SetZero()
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	return nil
}

// persist saves the named collections. Callers hold s.mu.
func (s *Shop) persist(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		var value any
		switch key {
		case storage.KeyProducts:
			value = s.catalog.List()
		case storage.KeyCart:
			value = s.cart.Lines()
		case storage.KeyUsers:
			value = s.users.List()
		case storage.KeyCurrentUser:
			if u, ok := s.users.Current(); ok {
				value = u
			}
		default:
			return fmt.Errorf("persist: unknown key %q", key)
		}

		if err := s.store.Save(ctx, key, value); err != nil {
			s.logger.Error("failed to persist state", "key", key, "error", err)
			return fmt.Errorf("persist %s: %w", key, err)
		}
	}
	return nil
}

func (s *Shop) notify(ctx context.Context, kind notify.Kind, message string) {
	s.notifications.Push(kind, message)
	s.metrics.Notification(ctx, kind.String())
}

// Notifications returns the notifications that have not expired yet.
func (s *Shop) Notifications() []notify.Notification {
	return s.notifications.Active(s.now())
}

// Close releases the underlying store.
func (s *Shop) Close() error {
	return s.store.Close()
}
