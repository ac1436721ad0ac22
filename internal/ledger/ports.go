// Package ledger defines the inbound ports of the movement ledger.
// HTTP handlers and tests depend on these interfaces, not on the
// SQLite-backed service directly.
package ledger

import (
	"context"
	"errors"

	"hogar/internal/core"
)

// ErrNotFound is returned when an id does not match any movement.
var ErrNotFound = errors.New("movement not found")

// Filter narrows List. Zero values mean "no filter".
type Filter struct {
	Type     core.MovementType
	Status   core.Status
	UserID   string
	Category string
	Search   string
}

// Patch carries the mutable fields of a movement. Nil means unchanged.
type Patch struct {
	Type          *core.MovementType
	AmountCents   *int64
	Category      *string
	Description   *string
	PaymentMethod *string
	Date          *core.Date
}

type (
	// Creator registers a movement, expanding installments when
	// TotalInstallments is greater than one. It returns the first
	// stored movement of the batch.
	Creator interface {
		Create(ctx context.Context, m core.Movement) (core.Movement, error)
	}

	Lister interface {
		List(ctx context.Context, f Filter) ([]core.Movement, error)
	}

	Updater interface {
		Update(ctx context.Context, id int64, p Patch) (core.Movement, error)
	}

	// Confirmer moves a movement to CONFIRMED. Confirming twice is not
	// an error.
	Confirmer interface {
		Confirm(ctx context.Context, id int64) (core.Movement, error)
	}

	Deleter interface {
		Delete(ctx context.Context, id int64) error
	}

	// SummaryReader derives aggregates from fresh reads on every call.
	SummaryReader interface {
		Summary(ctx context.Context) (core.Summary, error)
		Monthly(ctx context.Context, year int) ([12]int64, error)
		Personal(ctx context.Context) (map[string]core.PersonTotals, error)
	}
)

// Ledger is the full inbound surface of the movement store.
type Ledger interface {
	Creator
	Lister
	Updater
	Confirmer
	Deleter
	SummaryReader
}
