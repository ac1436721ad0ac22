package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hogar/internal/core"
	"hogar/internal/ledger"
)

type createMovementRequest struct {
	Type              string `json:"type"`
	Amount            string `json:"amount"`
	AmountCents       int64  `json:"amount_cents"`
	Category          string `json:"category"`
	Description       string `json:"description"`
	PaymentMethod     string `json:"payment_method"`
	Date              string `json:"date"`
	Status            string `json:"status"`
	TotalInstallments int    `json:"total_installments"`
}

func (s *Server) handleCreateMovement(w http.ResponseWriter, r *http.Request, member core.Member) {
	var req createMovementRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cents := req.AmountCents
	if cents == 0 && strings.TrimSpace(req.Amount) != "" {
		parsed, err := core.ParseDecimalToCents(req.Amount)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "invalid amount")
			return
		}
		cents = parsed
	}

	date, err := core.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid date, expected YYYY-MM-DD")
		return
	}

	movement := core.Movement{
		Type:              core.MovementType(strings.TrimSpace(req.Type)),
		Amount:            core.Money{Cents: cents},
		Category:          strings.TrimSpace(req.Category),
		Description:       strings.TrimSpace(req.Description),
		PaymentMethod:     strings.TrimSpace(req.PaymentMethod),
		Date:              date,
		Status:            core.Status(strings.TrimSpace(req.Status)),
		UserID:            member.ID,
		TotalInstallments: req.TotalInstallments,
	}

	created, err := s.ledger.Create(r.Context(), movement)
	if err != nil {
		if isValidationError(err) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Failed to create movement",
			"error", err,
			"member_id", member.ID,
			"type", req.Type,
			"amount_cents", cents)
		respondError(w, http.StatusInternalServerError, "failed to create movement")
		return
	}

	respondJSON(w, http.StatusCreated, toMovementJSON(created))
}

func (s *Server) handleListMovements(w http.ResponseWriter, r *http.Request, member core.Member) {
	q := r.URL.Query()
	filter := ledger.Filter{
		Type:     core.MovementType(strings.TrimSpace(q.Get("type"))),
		Status:   core.Status(strings.TrimSpace(q.Get("status"))),
		UserID:   strings.TrimSpace(q.Get("user")),
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("q")),
	}

	movements, err := s.ledger.List(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list movements", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list movements")
		return
	}

	out := make([]movementJSON, 0, len(movements))
	for _, m := range movements {
		out = append(out, toMovementJSON(m))
	}
	respondJSON(w, http.StatusOK, map[string]any{"movements": out})
}

type updateMovementRequest struct {
	Type          *string `json:"type"`
	Amount        *string `json:"amount"`
	AmountCents   *int64  `json:"amount_cents"`
	Category      *string `json:"category"`
	Description   *string `json:"description"`
	PaymentMethod *string `json:"payment_method"`
	Date          *string `json:"date"`
}

func (s *Server) handleUpdateMovement(w http.ResponseWriter, r *http.Request, member core.Member) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateMovementRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var patch ledger.Patch
	if req.Type != nil {
		t := core.MovementType(strings.TrimSpace(*req.Type))
		patch.Type = &t
	}
	if req.AmountCents != nil {
		patch.AmountCents = req.AmountCents
	} else if req.Amount != nil {
		cents, err := core.ParseDecimalToCents(*req.Amount)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "invalid amount")
			return
		}
		patch.AmountCents = &cents
	}
	patch.Category = req.Category
	patch.Description = req.Description
	patch.PaymentMethod = req.PaymentMethod
	if req.Date != nil {
		date, err := core.ParseDate(strings.TrimSpace(*req.Date))
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "invalid date, expected YYYY-MM-DD")
			return
		}
		patch.Date = &date
	}

	updated, err := s.ledger.Update(r.Context(), id, patch)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			respondError(w, http.StatusNotFound, "movement not found")
		case isValidationError(err):
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			slog.ErrorContext(r.Context(), "Failed to update movement", "error", err, "id", id)
			respondError(w, http.StatusInternalServerError, "failed to update movement")
		}
		return
	}

	respondJSON(w, http.StatusOK, toMovementJSON(updated))
}

func (s *Server) handleConfirmMovement(w http.ResponseWriter, r *http.Request, member core.Member) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	confirmed, err := s.ledger.Confirm(r.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			respondError(w, http.StatusNotFound, "movement not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to confirm movement", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "failed to confirm movement")
		return
	}

	respondJSON(w, http.StatusOK, toMovementJSON(confirmed))
}

func (s *Server) handleDeleteMovement(w http.ResponseWriter, r *http.Request, member core.Member) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.ledger.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			respondError(w, http.StatusNotFound, "movement not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to delete movement", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "failed to delete movement")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleSummary returns overall totals. Aggregation failures degrade to
// a zeroed summary so clients always render something.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, member core.Member) {
	summary, err := s.ledger.Summary(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to compute summary", "error", err)
		summary = core.Summary{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"income_cents":    summary.Income.Cents,
		"expenses_cents":  summary.Expenses.Cents,
		"emergency_cents": summary.Emergency.Cents,
		"savings_cents":   summary.Savings.Cents,
		"balance_cents":   summary.Balance.Cents,
		"income":          core.FormatPesos(summary.Income.Cents),
		"expenses":        core.FormatPesos(summary.Expenses.Cents),
		"emergency":       core.FormatPesos(summary.Emergency.Cents),
		"savings":         core.FormatPesos(summary.Savings.Cents),
		"balance":         core.FormatPesos(summary.Balance.Cents),
	})
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request, member core.Member) {
	year := time.Now().Year()
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1900 || y > 3000 {
			respondError(w, http.StatusUnprocessableEntity, "invalid year")
			return
		}
		year = y
	}

	months, err := s.ledger.Monthly(r.Context(), year)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to compute monthly summary", "error", err, "year", year)
		months = [12]int64{}
	}

	out := make([]map[string]any, 0, 12)
	for i, cents := range months {
		out = append(out, map[string]any{
			"month":         i + 1,
			"balance_cents": cents,
			"balance":       core.FormatPesos(cents),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"year": year, "months": out})
}

func (s *Server) handlePersonalSummary(w http.ResponseWriter, r *http.Request, member core.Member) {
	totals, err := s.ledger.Personal(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to compute personal summary", "error", err)
		totals = map[string]core.PersonTotals{}
	}

	out := make([]map[string]any, 0, len(totals))
	for _, m := range s.members.All() {
		t, ok := totals[m.ID]
		if !ok {
			t = core.PersonTotals{Member: m}
		}
		out = append(out, map[string]any{
			"member_id":      m.ID,
			"label":          m.Label,
			"income_cents":   t.Income.Cents,
			"expenses_cents": t.Expenses.Cents,
			"income":         core.FormatPesos(t.Income.Cents),
			"expenses":       core.FormatPesos(t.Expenses.Cents),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"members": out})
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request, member core.Member) {
	out := make([]map[string]string, 0)
	for _, m := range s.members.All() {
		out = append(out, map[string]string{"id": m.ID, "label": m.Label})
	}
	respondJSON(w, http.StatusOK, map[string]any{"members": out})
}

// handleCatalog returns the category, payment method, and installment
// options clients present.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request, member core.Member) {
	categories := make([]map[string]string, 0)
	for _, c := range core.Categories() {
		categories = append(categories, map[string]string{"label": c.Label, "value": c.Value})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"categories":          categories,
		"payment_methods":     core.PaymentMethods(),
		"installment_options": core.InstallmentOptions(),
	})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusNotFound, "movement not found")
		return 0, false
	}
	return id, true
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidType) ||
		errors.Is(err, core.ErrInvalidStatus) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrEmptyDescription) ||
		errors.Is(err, core.ErrDescriptionTooLong) ||
		errors.Is(err, core.ErrEmptyCategory) ||
		errors.Is(err, core.ErrEmptyUser) ||
		errors.Is(err, core.ErrInvalidInstallments) ||
		errors.Is(err, core.ErrInvalidDate)
}
