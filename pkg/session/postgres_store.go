package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool used by PostgresStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	queryKeyExists = `SELECT EXISTS (SELECT 1 FROM storefront_sessions WHERE session_key = $1)`

	queryGetSession = `SELECT session_value FROM storefront_sessions WHERE session_key = $1 AND session_expiry > $2`

	queryUpsertSession = `INSERT INTO storefront_sessions (session_key, customer_id, session_value, session_expiry)
VALUES ($1, $2, $3, $4)
ON CONFLICT (session_key) DO UPDATE
SET customer_id = EXCLUDED.customer_id, session_value = EXCLUDED.session_value, session_expiry = EXCLUDED.session_expiry`

	queryDeleteSession = `DELETE FROM storefront_sessions WHERE session_key = $1`

	queryDeleteExpired = `DELETE FROM storefront_sessions WHERE session_expiry <= $1`
)

// PostgresStore keeps session records in the storefront_sessions table.
type PostgresStore struct {
	db  DB
	now func() time.Time
}

// NewPostgresStore creates a PostgreSQL-backed session store.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func (p *PostgresStore) GenerateKey(ctx context.Context) (string, error) {
	for {
		key, err := generateKey()
		if err != nil {
			return "", err
		}
		var exists bool
		if err := p.db.QueryRow(ctx, queryKeyExists, key).Scan(&exists); err != nil {
			return "", errors.Join(ErrStoreUnavailable, err)
		}
		if !exists {
			return key, nil
		}
	}
}

func (p *PostgresStore) Get(ctx context.Context, key string) (*Session, error) {
	var raw []byte
	err := p.db.QueryRow(ctx, queryGetSession, key, p.now()).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Join(ErrInvalidSession, err)
	}
	return &s, nil
}

func (p *PostgresStore) Save(ctx context.Context, s *Session) error {
	if err := validateForSave(s); err != nil {
		return err
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}

	if _, err := p.db.Exec(ctx, queryUpsertSession, s.Key, s.CustomerID, raw, s.ExpiresAt); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := p.db.Exec(ctx, queryDeleteSession, key); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (p *PostgresStore) DeleteExpired(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, queryDeleteExpired, p.now()); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
