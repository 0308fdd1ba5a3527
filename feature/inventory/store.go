package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"scanmate/core/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store owns one mode's items and logs.
//
// Every write (scan increments, manual edits, log flushes, bulk replaces and
// store-file swaps) runs under the store's write lock, so a bulk replace never
// interleaves with a scan against a half-cleared table.
type Store struct {
	mode   Mode
	cfg    database.Config
	logger *zap.Logger
	now    func() time.Time

	// mu is the write lock.
	mu sync.Mutex

	// hmu guards db across swaps.
	hmu sync.RWMutex
	db  *gorm.DB
}

// OpenStore connects to the store described by cfg and initializes its schema.
func OpenStore(mode Mode, cfg database.Config, logger *zap.Logger) (*Store, error) {
	mode.mustValid()

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", mode, err)
	}

	s, err := NewStore(mode, db, logger)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}
	s.cfg = cfg
	return s, nil
}

// NewStore wraps an existing connection and initializes its schema.
func NewStore(mode Mode, db *gorm.DB, logger *zap.Logger) (*Store, error) {
	mode.mustValid()
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		mode:   mode,
		logger: logger.With(zap.String("mode", string(mode))),
		now:    func() time.Time { return time.Now().UTC() },
		db:     db,
	}

	if err := s.EnsureSchema(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Mode returns the mode this store serves.
func (s *Store) Mode() Mode {
	return s.mode
}

// Path returns the backing file, or "" for in-memory stores and stores kept
// on a database server.
func (s *Store) Path() string {
	if s.cfg.Name == database.MemoryDSN || s.cfg.Networked() {
		return ""
	}
	return s.cfg.Name
}

// DB returns the current connection.
func (s *Store) DB() *gorm.DB {
	s.hmu.RLock()
	defer s.hmu.RUnlock()
	return s.db
}

func (s *Store) handle(ctx context.Context) (*gorm.DB, error) {
	s.hmu.RLock()
	defer s.hmu.RUnlock()
	if s.db == nil {
		return nil, ErrStoreClosed
	}
	return s.db.WithContext(ctx), nil
}

// EnsureSchema creates or completes the store's tables. Safe to call repeatedly.
func (s *Store) EnsureSchema(ctx context.Context) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}
	changes, err := ensureSchema(db, s)
	for _, c := range changes {
		s.logger.Info("Schema updated", zap.String("change", c))
	}
	if err != nil {
		return fmt.Errorf("failed to initialize %s schema: %w", s.mode, err)
	}
	return nil
}

// Exclusive runs fn while holding the write lock.
func (s *Store) Exclusive(ctx context.Context, fn func(db *gorm.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.handle(ctx)
	if err != nil {
		return err
	}
	return fn(db)
}

// Swap closes the connection, lets fn replace the backing file, then reopens
// it and reinitializes the schema. If fn or the reopen fails the store stays
// closed and the error is returned; callers restore a backup with another Swap.
func (s *Store) Swap(ctx context.Context, fn func(path string) error) error {
	path := s.Path()
	if path == "" {
		return errors.New("only file-backed stores can be swapped")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.hmu.Lock()
	old := s.db
	s.db = nil
	s.hmu.Unlock()

	if err := database.Close(old); err != nil {
		s.logger.Warn("Failed to close store before swap", zap.Error(err))
	}

	if err := fn(path); err != nil {
		return err
	}

	db, err := database.Connect(s.cfg)
	if err != nil {
		return fmt.Errorf("failed to reopen %s store: %w", s.mode, err)
	}

	changes, err := ensureSchema(db.WithContext(ctx), s)
	for _, c := range changes {
		s.logger.Info("Schema updated", zap.String("change", c))
	}
	if err != nil {
		_ = database.Close(db)
		return fmt.Errorf("failed to initialize %s schema: %w", s.mode, err)
	}

	s.hmu.Lock()
	s.db = db
	s.hmu.Unlock()
	return nil
}

// Close releases the connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hmu.Lock()
	db := s.db
	s.db = nil
	s.hmu.Unlock()

	return database.Close(db)
}
