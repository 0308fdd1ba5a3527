package inventory

import (
	"context"
	"errors"

	"scanmate/core/database"

	"go.uber.org/zap"
)

// Router resolves a mode to its store and applies that mode's identity rule.
type Router struct {
	stores map[Mode]*Store
}

// NewRouter builds a router over two already opened stores.
func NewRouter(standard, loots *Store) *Router {
	if standard.Mode() != ModeStandard || loots.Mode() != ModeLoots {
		panic("inventory: stores passed to NewRouter in the wrong order")
	}
	return &Router{stores: map[Mode]*Store{
		ModeStandard: standard,
		ModeLoots:    loots,
	}}
}

// OpenRouter opens one store file per mode under cfg.DataDir.
func OpenRouter(cfg database.Config, logger *zap.Logger) (*Router, error) {
	standard, err := OpenStore(ModeStandard, cfg.WithFile(cfg.StandardFile), logger)
	if err != nil {
		return nil, err
	}
	loots, err := OpenStore(ModeLoots, cfg.WithFile(cfg.LootsFile), logger)
	if err != nil {
		_ = standard.Close()
		return nil, err
	}
	return NewRouter(standard, loots), nil
}

// Store returns the store for mode. Unknown modes panic.
func (r *Router) Store(mode Mode) *Store {
	mode.mustValid()
	return r.stores[mode]
}

// Find resolves an item under mode's identity rule.
func (r *Router) Find(ctx context.Context, mode Mode, barcode string, container *string) (Item, error) {
	return r.Store(mode).Find(ctx, barcode, container)
}

// Close closes both stores.
func (r *Router) Close() error {
	var errs []error
	for _, m := range Modes {
		if err := r.stores[m].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
