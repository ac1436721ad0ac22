// Package memory provides an in-memory ledger backend for development
// and handler tests. No persistence, no AMQP, same semantics.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"hogar/internal/core"
	"hogar/internal/ledger"
	"hogar/internal/services"
)

type Store struct {
	mu        sync.RWMutex
	movements map[int64]core.Movement
	nextID    int64
	members   *core.MemberDirectory
}

var _ ledger.Ledger = (*Store)(nil)

func NewStore(members *core.MemberDirectory) *Store {
	return &Store{
		movements: make(map[int64]core.Movement),
		nextID:    1,
		members:   members,
	}
}

func (s *Store) Create(ctx context.Context, m core.Movement) (core.Movement, error) {
	if m.Status == "" {
		m.Status = core.StatusConfirmed
	}
	if m.TotalInstallments < 1 {
		m.TotalInstallments = 1
	}
	if m.InstallmentNumber == 0 {
		m.InstallmentNumber = 1
	}
	if err := m.Validate(); err != nil {
		return core.Movement{}, fmt.Errorf("validate movement: %w", err)
	}
	if _, ok := s.members.Lookup(m.UserID); !ok {
		return core.Movement{}, fmt.Errorf("validate movement: %w: %q", core.ErrEmptyUser, m.UserID)
	}

	batch := services.ExpandInstallments(m)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	first := core.Movement{}
	for i, inst := range batch {
		inst.ID = s.nextID
		inst.Version = 1
		inst.CreatedAt = now
		s.nextID++
		s.movements[inst.ID] = inst
		if i == 0 {
			first = inst
		}
	}
	return first, nil
}

func (s *Store) List(ctx context.Context, f ledger.Filter) ([]core.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Movement, 0, len(s.movements))
	for _, m := range s.movements {
		if matches(m, f) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[j].Date.Before(out[i].Date)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func matches(m core.Movement, f ledger.Filter) bool {
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if f.Status != "" && m.Status != f.Status {
		return false
	}
	if f.UserID != "" && m.UserID != f.UserID {
		return false
	}
	if f.Category != "" && m.Category != f.Category {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		haystack := strings.ToLower(m.Description + " " + m.Category + " " + m.PaymentMethod)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

func (s *Store) Update(ctx context.Context, id int64, p ledger.Patch) (core.Movement, error) {
	if p.AmountCents != nil && *p.AmountCents <= 0 {
		return core.Movement{}, fmt.Errorf("validate patch: %w", core.ErrInvalidAmount)
	}
	if p.Type != nil && !p.Type.Valid() {
		return core.Movement{}, fmt.Errorf("validate patch: %w", core.ErrInvalidType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.movements[id]
	if !ok {
		return core.Movement{}, fmt.Errorf("update movement %d: %w", id, ledger.ErrNotFound)
	}

	if p.Type != nil {
		m.Type = *p.Type
	}
	if p.AmountCents != nil {
		m.Amount.Cents = *p.AmountCents
	}
	if p.Category != nil {
		m.Category = *p.Category
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.PaymentMethod != nil {
		m.PaymentMethod = *p.PaymentMethod
	}
	if p.Date != nil {
		m.Date = *p.Date
	}
	m.Version++
	s.movements[id] = m
	return m, nil
}

func (s *Store) Confirm(ctx context.Context, id int64) (core.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.movements[id]
	if !ok {
		return core.Movement{}, fmt.Errorf("confirm movement %d: %w", id, ledger.ErrNotFound)
	}
	m.Status = core.StatusConfirmed
	m.Version++
	s.movements[id] = m
	return m, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.movements[id]; !ok {
		return fmt.Errorf("delete movement %d: %w", id, ledger.ErrNotFound)
	}
	delete(s.movements, id)
	return nil
}

func (s *Store) Summary(ctx context.Context) (core.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]core.SummaryRow, 0, len(s.movements))
	for _, m := range s.movements {
		rows = append(rows, core.SummaryRow{Type: m.Type, Amount: m.Amount, Status: m.Status})
	}
	return core.Summarize(rows), nil
}

func (s *Store) Monthly(ctx context.Context, year int) ([12]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]core.MonthlyRow, 0, len(s.movements))
	for _, m := range s.movements {
		rows = append(rows, core.MonthlyRow{Type: m.Type, Amount: m.Amount, Date: m.Date.String()})
	}
	return core.MonthlyTotals(rows, year), nil
}

func (s *Store) Personal(ctx context.Context) (map[string]core.PersonTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]core.PersonalRow, 0, len(s.movements))
	for _, m := range s.movements {
		if m.Status != core.StatusConfirmed {
			continue
		}
		rows = append(rows, core.PersonalRow{
			Type:   m.Type,
			Amount: m.Amount,
			Status: m.Status,
			UserID: m.UserID,
		})
	}
	return core.PersonalTotals(rows, s.members), nil
}
