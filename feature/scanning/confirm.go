package scanning

import (
	"context"

	"scanmate/feature/inventory"
)

// Prompt describes an unknown barcode awaiting an operator decision.
type Prompt struct {
	Mode      inventory.Mode
	Barcode   string
	Container *string
}

// Confirmer decides whether an unknown barcode becomes a new item.
// ctx is cancelled when the pipeline stops; implementations should then decline.
type Confirmer interface {
	ConfirmCreate(ctx context.Context, p Prompt) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, p Prompt) bool

func (f ConfirmFunc) ConfirmCreate(ctx context.Context, p Prompt) bool {
	return f(ctx, p)
}

// AutoConfirm answers every prompt with the same decision.
func AutoConfirm(accept bool) Confirmer {
	return ConfirmFunc(func(context.Context, Prompt) bool { return accept })
}
