// Package memory is an in-memory movement exporter for development and
// worker tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"hogar/internal/core"
	ports "hogar/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	rows map[int64]core.Movement
}

var _ ports.MovementExporter = (*Exporter)(nil)

func NewExporter() *Exporter {
	return &Exporter{rows: make(map[int64]core.Movement)}
}

func (e *Exporter) Append(ctx context.Context, m core.Movement) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows[m.ID] = m
	return fmt.Sprintf("memory!%d", m.ID), nil
}

func (e *Exporter) Remove(ctx context.Context, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.rows, id)
	return nil
}

// Exported returns the movement exported under id, if any.
func (e *Exporter) Exported(id int64) (core.Movement, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.rows[id]
	return m, ok
}

// Count returns how many rows are currently exported.
func (e *Exporter) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.rows)
}
