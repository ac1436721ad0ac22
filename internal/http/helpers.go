package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"hogar/internal/core"
)

// movementJSON is the wire shape of a movement.
type movementJSON struct {
	ID                int64  `json:"id"`
	Type              string `json:"type"`
	AmountCents       int64  `json:"amount_cents"`
	Amount            string `json:"amount"`
	Category          string `json:"category"`
	Description       string `json:"description"`
	PaymentMethod     string `json:"payment_method"`
	Date              string `json:"date"`
	CreatedAt         string `json:"created_at"`
	Status            string `json:"status"`
	UserID            string `json:"user_id"`
	TotalInstallments int    `json:"total_installments"`
	InstallmentNumber int    `json:"installment_number"`
	GroupID           string `json:"group_id,omitempty"`
	Version           int64  `json:"version"`
}

func toMovementJSON(m core.Movement) movementJSON {
	return movementJSON{
		ID:                m.ID,
		Type:              string(m.Type),
		AmountCents:       m.Amount.Cents,
		Amount:            core.FormatPesos(m.Amount.Cents),
		Category:          m.Category,
		Description:       m.Description,
		PaymentMethod:     m.PaymentMethod,
		Date:              m.Date.String(),
		CreatedAt:         m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Status:            string(m.Status),
		UserID:            m.UserID,
		TotalInstallments: m.TotalInstallments,
		InstallmentNumber: m.InstallmentNumber,
		GroupID:           m.GroupID,
		Version:           m.Version,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
