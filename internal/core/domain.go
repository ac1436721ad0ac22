package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Ingreso    MovementType = "INGRESO"
	Gasto      MovementType = "GASTO"
	Emergencia MovementType = "EMERGENCIA"
	Ahorro     MovementType = "AHORRO"
)

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
)

type (
	MovementType string

	Status string

	Money struct {
		Cents int64
	}

	// Movement is a single ledger entry. Installment purchases produce one
	// Movement per month, all sharing a GroupID.
	Movement struct {
		ID                int64
		Type              MovementType
		Amount            Money
		Category          string
		Description       string
		PaymentMethod     string
		Date              Date
		CreatedAt         time.Time
		Status            Status
		UserID            string
		TotalInstallments int
		InstallmentNumber int
		GroupID           string
		Version           int64
	}

	// Member is a configured household member. Identity comes from
	// configuration, never from hardcoded ids.
	Member struct {
		ID    string
		Label string
	}
)

var (
	ErrInvalidType         = errors.New("invalid movement type")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyDescription    = errors.New("empty description")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
	ErrEmptyCategory       = errors.New("empty category")
	ErrEmptyUser           = errors.New("empty user id")
	ErrInvalidInstallments = errors.New("invalid installments")
)

// Valid reports whether t is one of the four known movement types.
func (t MovementType) Valid() bool {
	switch t {
	case Ingreso, Gasto, Emergencia, Ahorro:
		return true
	default:
		return false
	}
}

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Movement) Validate() error {
	if !m.Type.Valid() {
		return ErrInvalidType
	}
	if !m.Status.Valid() {
		return ErrInvalidStatus
	}
	if err := m.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(m.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(m.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if strings.TrimSpace(m.Category) == "" {
		return ErrEmptyCategory
	}
	if err := m.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(m.UserID) == "" {
		return ErrEmptyUser
	}
	if m.TotalInstallments < 1 {
		return ErrInvalidInstallments
	}
	if m.InstallmentNumber < 1 || m.InstallmentNumber > m.TotalInstallments {
		return ErrInvalidInstallments
	}
	return nil
}

// MemberDirectory resolves configured household members by id.
type MemberDirectory struct {
	members []Member
	byID    map[string]Member
}

func NewMemberDirectory(members []Member) *MemberDirectory {
	byID := make(map[string]Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}
	return &MemberDirectory{members: members, byID: byID}
}

// Lookup returns the member for id, if configured.
func (d *MemberDirectory) Lookup(id string) (Member, bool) {
	m, ok := d.byID[id]
	return m, ok
}

// All returns the configured members in declaration order.
func (d *MemberDirectory) All() []Member {
	out := make([]Member, len(d.members))
	copy(out, d.members)
	return out
}
