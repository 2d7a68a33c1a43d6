package database

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoAccessor means the request did not pass through Middleware.
	ErrNoAccessor = errors.New("no database accessor in context")
	// ErrReleased means the connection was already returned to the pool.
	ErrReleased = errors.New("database accessor already released")
)

// Handle hands out the connection queries should run on.
type Handle interface {
	Conn(ctx context.Context) (*sqlx.Conn, error)
}

// Accessor lazily takes one connection from the pool and keeps it until
// Release is called.
type Accessor struct {
	db *sqlx.DB

	mu       sync.Mutex
	conn     *sqlx.Conn
	released bool
}

func NewAccessor(db *sqlx.DB) *Accessor {
	return &Accessor{db: db}
}

// Conn returns the accessor's connection, acquiring it on first use.
func (a *Accessor) Conn(ctx context.Context) (*sqlx.Conn, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return nil, ErrReleased
	}
	if a.conn == nil {
		conn, err := a.db.Connx(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquiring database connection: %w", err)
		}
		a.conn = conn
	}
	return a.conn, nil
}

// Acquired reports whether a connection is currently held.
func (a *Accessor) Acquired() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conn != nil
}

// Release returns the connection to the pool. Only the first call has an effect.
func (a *Accessor) Release() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return nil
	}
	a.released = true
	if a.conn == nil {
		return nil
	}
	err := a.conn.Close()
	a.conn = nil
	return err
}

type accessorKey struct{}

// WithAccessor returns a copy of ctx carrying a.
func WithAccessor(ctx context.Context, a *Accessor) context.Context {
	return context.WithValue(ctx, accessorKey{}, a)
}

// FromContext returns the accessor stored by Middleware.
func FromContext(ctx context.Context) (*Accessor, error) {
	a, ok := ctx.Value(accessorKey{}).(*Accessor)
	if !ok || a == nil {
		return nil, ErrNoAccessor
	}
	return a, nil
}

// Middleware gives every request its own Accessor and releases it when the
// handler returns or panics.
func Middleware(db *sqlx.DB, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accessor := NewAccessor(db)
			defer func() {
				if err := accessor.Release(); err != nil {
					log.WithError(err).WithField("path", r.URL.Path).Error("Closing database connection")
				}
			}()
			next.ServeHTTP(w, r.WithContext(WithAccessor(r.Context(), accessor)))
		})
	}
}
