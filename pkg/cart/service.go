package cart

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/storefront/pkg/keylock"
	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/session"
)

// Service reads and mutates carts stored in session records.
type Service struct {
	store  session.Store
	queue  *keylock.Queue
	logger *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a Service. queue must be the one guarding session
// records everywhere else in the process.
func NewService(store session.Store, queue *keylock.Queue, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		queue:  queue,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("cart"))
	return s
}

// Get returns the current cart of a session without locking.
func (s *Service) Get(ctx context.Context, sessionKey string) (*Cart, error) {
	sess, err := s.store.Get(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	return Load(sess)
}

// Mutate applies fn to the freshest cart of the session and saves the result.
// Concurrent calls for one session run one after another.
func (s *Service) Mutate(ctx context.Context, sessionKey string, fn func(c *Cart) error) (*Cart, error) {
	return keylock.Do(ctx, s.queue, sessionKey, func(ctx context.Context) (*Cart, error) {
		sess, err := s.store.Get(ctx, sessionKey)
		if err != nil {
			return nil, err
		}

		c, err := Load(sess)
		if err != nil {
			return nil, err
		}
		if err := fn(c); err != nil {
			return nil, err
		}
		if err := Save(sess, c); err != nil {
			return nil, err
		}
		if err := s.store.Save(ctx, sess); err != nil {
			return nil, err
		}

		s.logger.DebugContext(ctx, "cart updated",
			logger.SessionKey(sessionKey),
			slog.Int("lines", len(c.Items)),
		)
		return c, nil
	})
}

func (s *Service) AddItem(ctx context.Context, sessionKey, productID, variationID string, qty int) (*Cart, error) {
	return s.Mutate(ctx, sessionKey, func(c *Cart) error {
		_, err := c.Add(productID, variationID, qty)
		return err
	})
}

func (s *Service) UpdateQuantity(ctx context.Context, sessionKey, itemKey string, qty int) (*Cart, error) {
	return s.Mutate(ctx, sessionKey, func(c *Cart) error {
		_, err := c.SetQuantity(itemKey, qty)
		return err
	})
}

func (s *Service) RemoveItem(ctx context.Context, sessionKey, itemKey string) (*Cart, error) {
	return s.Mutate(ctx, sessionKey, func(c *Cart) error {
		_, err := c.Remove(itemKey)
		return err
	})
}

func (s *Service) RestoreItem(ctx context.Context, sessionKey, itemKey string) (*Cart, error) {
	return s.Mutate(ctx, sessionKey, func(c *Cart) error {
		_, err := c.Restore(itemKey)
		return err
	})
}

func (s *Service) EmptyCart(ctx context.Context, sessionKey string) (*Cart, error) {
	return s.Mutate(ctx, sessionKey, func(c *Cart) error {
		c.Empty()
		return nil
	})
}
