package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storefront/pkg/keylock"
	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/token"
)

// Codec turns a session identity into an opaque token and back.
// *token.Codec satisfies it.
type Codec interface {
	Encode(id token.Identity) (string, error)
	Decode(tokenString string) (token.Identity, error)
	TTL() time.Duration
}

// Manager handles session operations
type Manager struct {
	codec        Codec
	store        Store
	transport    Transport
	queue        *keylock.Queue
	config       Config
	logger       *slog.Logger
	now          func() time.Time
	errorHandler ErrorHandler

	ownedStore   *MemoryStore
	activityChan chan string
	done         chan struct{}
	closeOnce    sync.Once
	wg           sync.WaitGroup
}

// New creates a new session manager with the given options.
// Without WithStore sessions are kept in memory, without WithTransport the
// token travels in the configured header.
func New(codec Codec, opts ...Option) *Manager {
	if codec == nil {
		panic("session: codec is required")
	}

	m := &Manager{
		codec:        codec,
		config:       DefaultConfig(),
		logger:       slog.New(slog.DiscardHandler),
		now:          time.Now,
		activityChan: make(chan string, 1000),
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.logger = m.logger.With(logger.Component("session"))

	if m.store == nil {
		m.ownedStore = NewMemoryStore(m.config.CleanupInterval)
		m.store = m.ownedStore
	}
	if m.transport == nil {
		m.transport = NewHeaderTransport(m.config.HeaderName, WithHeaderPrefix(m.config.HeaderPrefix))
	}
	if m.queue == nil {
		m.queue = keylock.New(keylock.NewMemoryLocker())
	}
	if m.errorHandler == nil {
		m.errorHandler = m.defaultErrorHandler
	}

	m.wg.Add(1)
	go m.activityWorker()

	return m
}

// Store returns the session store.
func (m *Manager) Store() Store {
	return m.store
}

// Queue returns the mutation queue guarding session records.
func (m *Manager) Queue() *keylock.Queue {
	return m.queue
}

// Resolve returns the session of the request, creating a new anonymous one
// when the token is missing, invalid, expired, revoked or bound to another
// client. issued reports whether a token was written to w.
// Only store failures are returned as errors.
func (m *Manager) Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) (sess *Session, issued bool, err error) {
	sess, err = m.lookup(ctx, r)
	switch {
	case err == nil:
	case errors.Is(err, ErrStoreUnavailable):
		return nil, false, err
	default:
		sess, err = m.bootstrap(ctx, w)
		if err != nil {
			return nil, false, err
		}
		return sess, true, nil
	}

	if !m.shouldUpdateActivity(sess) {
		return sess, false, nil
	}

	m.queueActivityUpdate(sess.Key)

	// Slide the token together with the record.
	if err := m.Issue(w, sess); err != nil {
		m.logger.WarnContext(ctx, "failed to refresh session token", logger.Error(err))
		return sess, false, nil
	}
	return sess, true, nil
}

// Get retrieves the session of the request without creating one.
func (m *Manager) Get(ctx context.Context, r *http.Request) (*Session, error) {
	return m.lookup(ctx, r)
}

// Issue encodes the session identity and writes the token to w.
func (m *Manager) Issue(w http.ResponseWriter, sess *Session) error {
	tok, err := m.codec.Encode(token.Identity{SessionKey: sess.Key, ClientID: sess.ClientID})
	if err != nil {
		return errors.Join(ErrTokenIssue, err)
	}
	if err := m.transport.SetToken(w, tok, m.codec.TTL()); err != nil {
		return errors.Join(ErrTokenIssue, err)
	}
	return nil
}

// Rotate gives the session of ctx a new client sub-identifier and issues a
// new token. Tokens issued before stop resolving to the session.
func (m *Manager) Rotate(ctx context.Context, w http.ResponseWriter) (*Session, error) {
	return m.rebind(ctx, w, nil)
}

// Promote attaches a customer to the session of ctx, extends its lifetime to
// the authenticated timeouts and rotates the client sub-identifier.
func (m *Manager) Promote(ctx context.Context, w http.ResponseWriter, customerID uuid.UUID) (*Session, error) {
	return m.rebind(ctx, w, &customerID)
}

// Destroy deletes the session of ctx and clears the token.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter) error {
	key, ok := KeyFromContext(ctx)
	if !ok {
		return ErrNoSession
	}

	err := m.queue.Run(ctx, key, func(ctx context.Context) error {
		return m.store.Delete(ctx, key)
	})
	if err != nil {
		return err
	}

	return m.transport.ClearToken(w)
}

// AllowedHeaders lists request headers a CORS layer must allow.
func (m *Manager) AllowedHeaders() []string {
	if hl, ok := m.transport.(HeaderLister); ok {
		return hl.AllowedHeaders()
	}
	return nil
}

// ExposedHeaders lists response headers a CORS layer must expose.
func (m *Manager) ExposedHeaders() []string {
	if hl, ok := m.transport.(HeaderLister); ok {
		return hl.ExposedHeaders()
	}
	return nil
}

// Close stops the activity worker after flushing queued updates.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
		if m.ownedStore != nil {
			_ = m.ownedStore.Close()
		}
	})
	return nil
}

func (m *Manager) lookup(ctx context.Context, r *http.Request) (*Session, error) {
	tok, err := m.transport.GetToken(r)
	if err != nil {
		return nil, err
	}

	id, err := m.codec.Decode(tok)
	if err != nil {
		m.logger.DebugContext(ctx, "discarding session token", logger.Error(err))
		return nil, err
	}

	sess, err := m.store.Get(ctx, id.SessionKey)
	if err != nil {
		return nil, storeError(err)
	}

	if m.expired(sess) {
		return nil, ErrSessionExpired
	}
	if !sess.MatchesClient(id.ClientID) {
		return nil, ErrInvalidSession
	}

	return sess, nil
}

func (m *Manager) bootstrap(ctx context.Context, w http.ResponseWriter) (*Session, error) {
	key, err := m.store.GenerateKey(ctx)
	if err != nil {
		return nil, storeError(err)
	}

	now := m.now()
	idle, max := m.config.GetTimeouts(false)
	sess := &Session{
		Key:            key,
		ClientID:       NewClientID(),
		ExpiresAt:      m.calculateExpiry(now, now, idle, max),
		LastActivityAt: now,
		CreatedAt:      now,
	}

	if err := m.store.Save(ctx, sess); err != nil {
		return nil, storeError(err)
	}

	if err := m.Issue(w, sess); err != nil {
		_ = m.store.Delete(ctx, key)
		return nil, err
	}

	m.logger.DebugContext(ctx, "session created", logger.SessionKey(key))

	return sess, nil
}

func (m *Manager) rebind(ctx context.Context, w http.ResponseWriter, customerID *uuid.UUID) (*Session, error) {
	key, ok := KeyFromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}

	sess, err := keylock.Do(ctx, m.queue, key, func(ctx context.Context) (*Session, error) {
		sess, err := m.store.Get(ctx, key)
		if err != nil {
			return nil, storeError(err)
		}

		now := m.now()
		sess.ClientID = NewClientID()
		if customerID != nil {
			id := *customerID
			sess.CustomerID = &id
		}
		idle, max := m.config.GetTimeouts(sess.IsAuthenticated())
		sess.ExpiresAt = m.calculateExpiry(sess.CreatedAt, now, idle, max)
		sess.LastActivityAt = now

		if err := m.store.Save(ctx, sess); err != nil {
			return nil, storeError(err)
		}
		return sess, nil
	})
	if err != nil {
		return nil, err
	}

	if err := m.Issue(w, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (m *Manager) expired(sess *Session) bool {
	return !m.now().Before(sess.ExpiresAt)
}

// shouldUpdateActivity checks if activity should be updated
func (m *Manager) shouldUpdateActivity(session *Session) bool {
	return m.now().Sub(session.LastActivityAt) >= m.config.ActivityUpdateThreshold
}

// queueActivityUpdate queues a session activity update
func (m *Manager) queueActivityUpdate(key string) {
	select {
	case m.activityChan <- key:
	default:
		// Channel full, drop update (prevents blocking hot paths)
	}
}

// activityWorker processes activity updates
func (m *Manager) activityWorker() {
	defer m.wg.Done()
	for {
		select {
		case key := <-m.activityChan:
			m.touch(key)
		case <-m.done:
			// Drain remaining updates for graceful shutdown
			for {
				select {
				case key := <-m.activityChan:
					m.touch(key)
				default:
					return
				}
			}
		}
	}
}

// touch reloads the record under its mutation lock so concurrent writers
// never lose data to an activity update.
func (m *Manager) touch(key string) {
	ctx := context.Background()
	err := m.queue.Run(ctx, key, func(ctx context.Context) error {
		sess, err := m.store.Get(ctx, key)
		if err != nil {
			return err
		}

		now := m.now()
		if now.Sub(sess.LastActivityAt) < m.config.ActivityUpdateThreshold {
			return nil
		}

		idle, max := m.config.GetTimeouts(sess.IsAuthenticated())
		sess.LastActivityAt = now
		sess.ExpiresAt = m.calculateExpiry(sess.CreatedAt, now, idle, max)
		return m.store.Save(ctx, sess)
	})
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		m.logger.Warn("session activity update failed",
			logger.SessionKey(key),
			logger.Error(err),
		)
	}
}

// calculateExpiry returns the next expiry time (min of idle and max lifetime)
func (m *Manager) calculateExpiry(createdAt, now time.Time, idle, max time.Duration) time.Time {
	idleExpiry := now.Add(idle)
	maxExpiry := createdAt.Add(max)

	if maxExpiry.Before(idleExpiry) {
		return maxExpiry
	}
	return idleExpiry
}

// storeError marks everything but missing or unreadable records as a store
// outage.
func storeError(err error) error {
	if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrInvalidSession) || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return errors.Join(ErrStoreUnavailable, err)
}
