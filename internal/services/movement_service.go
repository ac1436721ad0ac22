package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"hogar/internal/amqp"
	"hogar/internal/core"
	"hogar/internal/ledger"
	applog "hogar/internal/log"
	"hogar/internal/storage"
)

// MovementService orchestrates movement operations across SQLite and
// AMQP. Publishing failures never fail the request; the periodic
// worker sweep picks the rows up later.
type MovementService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	members    *core.MemberDirectory
	logger     *applog.StructuredLogger
}

var _ ledger.Ledger = (*MovementService)(nil)

func NewMovementService(storage *storage.SQLiteRepository, amqpClient *amqp.Client, members *core.MemberDirectory) *MovementService {
	return &MovementService{
		storage:    storage,
		amqpClient: amqpClient,
		members:    members,
		logger:     applog.NewStructuredLogger(applog.New(applog.Config{Component: applog.ComponentMovement})),
	}
}

// Create validates, expands installments and stores the whole batch in
// one insert. The first stored movement is returned.
func (s *MovementService) Create(ctx context.Context, m core.Movement) (core.Movement, error) {
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

	batch := ExpandInstallments(m)
	created, err := s.storage.InsertMovements(ctx, batch)
	if err != nil {
		return core.Movement{}, fmt.Errorf("save movements: %w", err)
	}

	for _, c := range created {
		if err := s.publishSyncMessage(ctx, c.ID, c.Version); err != nil {
			s.logger.LogError(ctx, "Failed to publish sync message", err,
				applog.ComponentMovement, applog.OpSync,
				applog.LogFields{applog.FieldMovementID: c.ID})
			// Don't fail the request, the movement is saved locally
		}
	}

	s.logger.LogMovementCreated(ctx,
		created[0].ID,
		string(created[0].Type),
		created[0].Amount.Cents,
		created[0].Category,
		len(created))

	return created[0], nil
}

// Confirm moves a movement to CONFIRMED. Already confirmed movements
// confirm again without error.
func (s *MovementService) Confirm(ctx context.Context, id int64) (core.Movement, error) {
	m, err := s.storage.ConfirmMovement(ctx, id)
	if err != nil {
		return core.Movement{}, fmt.Errorf("confirm movement: %w", err)
	}

	if err := s.publishSyncMessage(ctx, m.ID, m.Version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", m.ID, "error", err)
	}
	return m, nil
}

// Update applies a partial update to a movement.
func (s *MovementService) Update(ctx context.Context, id int64, p ledger.Patch) (core.Movement, error) {
	if p.AmountCents != nil && *p.AmountCents <= 0 {
		return core.Movement{}, fmt.Errorf("validate patch: %w", core.ErrInvalidAmount)
	}
	if p.Type != nil && !p.Type.Valid() {
		return core.Movement{}, fmt.Errorf("validate patch: %w", core.ErrInvalidType)
	}

	m, err := s.storage.UpdateMovement(ctx, id, storage.UpdatePatch{
		Type:          p.Type,
		AmountCents:   p.AmountCents,
		Category:      p.Category,
		Description:   p.Description,
		PaymentMethod: p.PaymentMethod,
		Date:          p.Date,
	})
	if err != nil {
		return core.Movement{}, fmt.Errorf("update movement: %w", err)
	}

	if err := s.publishSyncMessage(ctx, m.ID, m.Version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", m.ID, "error", err)
	}
	return m, nil
}

// Delete removes a movement locally and asks the worker to drop it
// from the backup sheet.
func (s *MovementService) Delete(ctx context.Context, id int64) error {
	if err := s.storage.DeleteMovement(ctx, id); err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}

	if err := s.publishDeleteMessage(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"id", id, "error", err)
	}
	return nil
}

// List returns movements newest first.
func (s *MovementService) List(ctx context.Context, f ledger.Filter) ([]core.Movement, error) {
	movements, err := s.storage.ListMovements(ctx, storage.ListFilter{
		Type:     f.Type,
		Status:   f.Status,
		UserID:   f.UserID,
		Category: f.Category,
		Search:   f.Search,
	})
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}

// Summary derives the overall confirmed totals from a fresh read.
func (s *MovementService) Summary(ctx context.Context) (core.Summary, error) {
	rows, err := s.storage.ListForSummary(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("load summary rows: %w", err)
	}
	return core.Summarize(rows), nil
}

// Monthly derives the twelve income-minus-expense buckets for a year.
func (s *MovementService) Monthly(ctx context.Context, year int) ([12]int64, error) {
	rows, err := s.storage.ListForMonthly(ctx)
	if err != nil {
		return [12]int64{}, fmt.Errorf("load monthly rows: %w", err)
	}
	return core.MonthlyTotals(rows, year), nil
}

// Personal derives per-member confirmed totals.
func (s *MovementService) Personal(ctx context.Context) (map[string]core.PersonTotals, error) {
	rows, err := s.storage.ListForPersonal(ctx)
	if err != nil {
		return nil, fmt.Errorf("load personal rows: %w", err)
	}
	return core.PersonalTotals(rows, s.members), nil
}

func (s *MovementService) publishSyncMessage(ctx context.Context, id, version int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.amqpClient.PublishMovementSync(ctx, id, version)
}

func (s *MovementService) publishDeleteMessage(ctx context.Context, id int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}
	return s.amqpClient.PublishMovementDelete(ctx, id)
}

// Close closes both storage and AMQP connections.
func (s *MovementService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close movement service: %v", errors.Join(errs...))
	}
	return nil
}
