package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hogar/internal/core"
	"hogar/internal/ledger"

	_ "modernc.org/sqlite"
)

// ErrMovementNotFound is the canonical not-found sentinel so callers can
// errors.Is across layers.
var ErrMovementNotFound = ledger.ErrNotFound

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const movementColumns = `id, type, amount_cents, category, description, payment_method,
	date, status, user_id, total_installments, installment_number, group_id, version, created_at`

// InsertMovements persists a batch inside a single transaction and
// returns the stored movements with their assigned ids. Installment
// batches rely on this being all-or-nothing.
func (r *SQLiteRepository) InsertMovements(ctx context.Context, movements []core.Movement) ([]core.Movement, error) {
	if len(movements) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO movements (type, amount_cents, category, description, payment_method,
			date, status, user_id, total_installments, installment_number, group_id, version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	out := make([]core.Movement, 0, len(movements))
	for _, m := range movements {
		res, err := stmt.ExecContext(ctx,
			string(m.Type), m.Amount.Cents, m.Category, m.Description, m.PaymentMethod,
			m.Date.String(), string(m.Status), m.UserID,
			m.TotalInstallments, m.InstallmentNumber, m.GroupID, now)
		if err != nil {
			return nil, fmt.Errorf("insert movement: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		m.ID = id
		m.Version = 1
		m.CreatedAt = now
		out = append(out, m)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert: %w", err)
	}

	slog.InfoContext(ctx, "Movements saved to SQLite",
		"count", len(out),
		"first_id", out[0].ID,
		"group_id", out[0].GroupID)

	return out, nil
}

// GetMovement retrieves a single movement by id.
func (r *SQLiteRepository) GetMovement(ctx context.Context, id int64) (core.Movement, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+movementColumns+` FROM movements WHERE id = ?`, id)
	m, err := scanMovement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Movement{}, fmt.Errorf("get movement %d: %w", id, ErrMovementNotFound)
		}
		return core.Movement{}, fmt.Errorf("get movement %d: %w", id, err)
	}
	return m, nil
}

// ListFilter narrows ListMovements. Zero values mean "no filter".
type ListFilter struct {
	Type     core.MovementType
	Status   core.Status
	UserID   string
	Category string
	Search   string
}

// ListMovements returns movements ordered by date, newest first, with
// creation time as the tie breaker.
func (r *SQLiteRepository) ListMovements(ctx context.Context, filter ListFilter) ([]core.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements`
	var conds []string
	var args []any

	if filter.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		conds = append(conds, "(description LIKE ? OR category LIKE ? OR payment_method LIKE ?)")
		like := "%" + filter.Search + "%"
		args = append(args, like, like, like)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date DESC, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var out []core.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListForSummary returns the narrow {type, amount, status} projection
// used by the overall summary.
func (r *SQLiteRepository) ListForSummary(ctx context.Context) ([]core.SummaryRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT type, amount_cents, status FROM movements`)
	if err != nil {
		return nil, fmt.Errorf("list for summary: %w", err)
	}
	defer rows.Close()

	var out []core.SummaryRow
	for rows.Next() {
		var typ, status string
		var cents int64
		if err := rows.Scan(&typ, &cents, &status); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		out = append(out, core.SummaryRow{
			Type:   core.MovementType(typ),
			Amount: core.Money{Cents: cents},
			Status: core.Status(status),
		})
	}
	return out, rows.Err()
}

// ListForMonthly returns {type, amount, date} rows. The date stays a
// literal string so year extraction never touches a timezone.
func (r *SQLiteRepository) ListForMonthly(ctx context.Context) ([]core.MonthlyRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT type, amount_cents, date FROM movements`)
	if err != nil {
		return nil, fmt.Errorf("list for monthly: %w", err)
	}
	defer rows.Close()

	var out []core.MonthlyRow
	for rows.Next() {
		var typ, date string
		var cents int64
		if err := rows.Scan(&typ, &cents, &date); err != nil {
			return nil, fmt.Errorf("scan monthly row: %w", err)
		}
		out = append(out, core.MonthlyRow{
			Type:   core.MovementType(typ),
			Amount: core.Money{Cents: cents},
			Date:   date,
		})
	}
	return out, rows.Err()
}

// ListForPersonal returns confirmed {type, amount, user} rows for the
// per-member summary.
func (r *SQLiteRepository) ListForPersonal(ctx context.Context) ([]core.PersonalRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT type, amount_cents, status, user_id FROM movements WHERE status = ?`,
		string(core.StatusConfirmed))
	if err != nil {
		return nil, fmt.Errorf("list for personal: %w", err)
	}
	defer rows.Close()

	var out []core.PersonalRow
	for rows.Next() {
		var typ, status, userID string
		var cents int64
		if err := rows.Scan(&typ, &cents, &status, &userID); err != nil {
			return nil, fmt.Errorf("scan personal row: %w", err)
		}
		out = append(out, core.PersonalRow{
			Type:   core.MovementType(typ),
			Amount: core.Money{Cents: cents},
			Status: core.Status(status),
			UserID: userID,
		})
	}
	return out, rows.Err()
}

// UpdatePatch carries the mutable fields of a movement. Nil means
// "leave unchanged".
type UpdatePatch struct {
	Type          *core.MovementType
	AmountCents   *int64
	Category      *string
	Description   *string
	PaymentMethod *string
	Date          *core.Date
}

// UpdateMovement applies a partial update, bumps the version and flags
// the row for re-export.
func (r *SQLiteRepository) UpdateMovement(ctx context.Context, id int64, patch UpdatePatch) (core.Movement, error) {
	var sets []string
	var args []any

	if patch.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, string(*patch.Type))
	}
	if patch.AmountCents != nil {
		sets = append(sets, "amount_cents = ?")
		args = append(args, *patch.AmountCents)
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *patch.Category)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.PaymentMethod != nil {
		sets = append(sets, "payment_method = ?")
		args = append(args, *patch.PaymentMethod)
	}
	if patch.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, patch.Date.String())
	}
	if len(sets) == 0 {
		return r.GetMovement(ctx, id)
	}

	sets = append(sets, "version = version + 1", "sync_status = 'pending'", "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	res, err := r.db.ExecContext(ctx,
		"UPDATE movements SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return core.Movement{}, fmt.Errorf("update movement %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Movement{}, fmt.Errorf("update movement %d: %w", id, err)
	}
	if affected == 0 {
		return core.Movement{}, fmt.Errorf("update movement %d: %w", id, ErrMovementNotFound)
	}

	return r.GetMovement(ctx, id)
}

// ConfirmMovement sets the status to CONFIRMED. Confirming an already
// confirmed movement is a no-op that still succeeds.
func (r *SQLiteRepository) ConfirmMovement(ctx context.Context, id int64) (core.Movement, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE movements
		SET status = ?, version = version + 1, sync_status = 'pending', updated_at = ?
		WHERE id = ?`,
		string(core.StatusConfirmed), time.Now().UTC(), id)
	if err != nil {
		return core.Movement{}, fmt.Errorf("confirm movement %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Movement{}, fmt.Errorf("confirm movement %d: %w", id, err)
	}
	if affected == 0 {
		return core.Movement{}, fmt.Errorf("confirm movement %d: %w", id, ErrMovementNotFound)
	}

	slog.InfoContext(ctx, "Movement confirmed", "id", id)
	return r.GetMovement(ctx, id)
}

// DeleteMovement removes a movement by id.
func (r *SQLiteRepository) DeleteMovement(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete movement %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete movement %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("delete movement %d: %w", id, ErrMovementNotFound)
	}
	return nil
}

// PendingSyncMovement is the minimal row needed to re-enqueue exports.
type PendingSyncMovement struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

// ListPendingSync returns movements not yet exported to the backup sheet.
func (r *SQLiteRepository) ListPendingSync(ctx context.Context, limit int) ([]PendingSyncMovement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version, created_at FROM movements
		WHERE sync_status = 'pending'
		ORDER BY created_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync: %w", err)
	}
	defer rows.Close()

	var out []PendingSyncMovement
	for rows.Next() {
		var p PendingSyncMovement
		if err := rows.Scan(&p.ID, &p.Version, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending sync: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced marks a movement as successfully exported.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE movements SET sync_status = 'synced', sync_error = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark synced %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Movement marked as synced", "id", id)
	return nil
}

// MarkSyncError records an export failure for later retry.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64, cause string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE movements SET sync_status = 'error', sync_error = ? WHERE id = ?`, cause, id)
	if err != nil {
		return fmt.Errorf("mark sync error %d: %w", id, err)
	}
	slog.WarnContext(ctx, "Movement marked with sync error", "id", id, "cause", cause)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovement(row rowScanner) (core.Movement, error) {
	var m core.Movement
	var typ, status, date string
	err := row.Scan(&m.ID, &typ, &m.Amount.Cents, &m.Category, &m.Description, &m.PaymentMethod,
		&date, &status, &m.UserID, &m.TotalInstallments, &m.InstallmentNumber, &m.GroupID,
		&m.Version, &m.CreatedAt)
	if err != nil {
		return core.Movement{}, err
	}
	m.Type = core.MovementType(typ)
	m.Status = core.Status(status)
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Movement{}, fmt.Errorf("stored date %q: %w", date, err)
	}
	m.Date = d
	return m, nil
}
