package sheets

import (
	"context"

	"hogar/internal/core"
)

// Ports for the spreadsheet backup the worker maintains.
type (
	// MovementAppender writes a movement as a new row and returns a
	// reference to where it landed.
	MovementAppender interface {
		Append(ctx context.Context, m core.Movement) (rowRef string, err error)
	}

	// MovementRemover clears the row holding the movement with the
	// given id. Removing an id that was never exported is not an error.
	MovementRemover interface {
		Remove(ctx context.Context, id int64) error
	}
)

// MovementExporter is what the worker needs from a backup target.
type MovementExporter interface {
	MovementAppender
	MovementRemover
}
