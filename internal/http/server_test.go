package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hogar/internal/core"
	"hogar/internal/ledger/memory"
)

func newTestServer() *Server {
	members := core.NewMemberDirectory([]core.Member{
		{ID: "ale", Label: "ALE"},
		{ID: "silvi", Label: "SILVI"},
	})
	return NewServer(":0", memory.NewStore(members), members)
}

func doRequest(t *testing.T, s *Server, method, path, memberID, body string) *httptest.ResponseRecorder {
	t.Helper()

	var rd *strings.Reader
	if body != "" {
		rd = strings.NewReader(body)
	} else {
		rd = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, rd)
	if memberID != "" {
		req.Header.Set("X-Member-ID", memberID)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestServer_Health(t *testing.T) {
	s := newTestServer()

	rec := doRequest(t, s, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/readyz", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d, want 200", rec.Code)
	}
}

func TestServer_AuthRequired(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name     string
		memberID string
	}{
		{"missing header", ""},
		{"unknown member", "intruso"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodGet, "/api/movements", tt.memberID, "")
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestServer_CreateMovement(t *testing.T) {
	s := newTestServer()

	body := `{
		"type": "GASTO",
		"amount": "1234,56",
		"category": "Alimentación",
		"description": "Supermercado",
		"payment_method": "Tarjeta Débito",
		"date": "2025-04-12"
	}`
	rec := doRequest(t, s, http.MethodPost, "/api/movements", "ale", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rec.Code, rec.Body.String())
	}

	var got movementJSON
	decodeBody(t, rec, &got)

	if got.AmountCents != 123456 {
		t.Errorf("amount_cents = %d, want 123456", got.AmountCents)
	}
	if got.UserID != "ale" {
		t.Errorf("user_id = %q, identity comes from the header", got.UserID)
	}
	if got.Status != "CONFIRMED" {
		t.Errorf("status = %q, want CONFIRMED default", got.Status)
	}
	if got.Amount != "$ 1.234,56" {
		t.Errorf("amount = %q, want formatted pesos", got.Amount)
	}
}

func TestServer_CreateMovement_Installments(t *testing.T) {
	s := newTestServer()

	body := `{
		"type": "GASTO",
		"amount_cents": 120000,
		"category": "Vestimenta",
		"description": "Campera",
		"payment_method": "Tarjeta Crédito",
		"date": "2025-01-31",
		"total_installments": 3
	}`
	rec := doRequest(t, s, http.MethodPost, "/api/movements", "silvi", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var first movementJSON
	decodeBody(t, rec, &first)
	if first.InstallmentNumber != 1 || first.GroupID == "" {
		t.Errorf("first installment = %d group %q", first.InstallmentNumber, first.GroupID)
	}
	if !strings.HasSuffix(first.Description, "(1/3)") {
		t.Errorf("description = %q, want (1/3) suffix", first.Description)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/movements", "silvi", "")
	var list struct {
		Movements []movementJSON `json:"movements"`
	}
	decodeBody(t, rec, &list)
	if len(list.Movements) != 3 {
		t.Fatalf("stored %d movements, want 3", len(list.Movements))
	}
	if list.Movements[1].Date != "2025-02-28" {
		t.Errorf("middle installment date = %s, want clamped 2025-02-28", list.Movements[1].Date)
	}
}

func TestServer_CreateMovement_Validation(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name string
		body string
		want int
	}{
		{
			name: "malformed JSON",
			body: `{`,
			want: http.StatusBadRequest,
		},
		{
			name: "bad amount",
			body: `{"type":"GASTO","amount":"abc","category":"Otros","description":"x","payment_method":"Efectivo","date":"2025-04-12"}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "bad date",
			body: `{"type":"GASTO","amount":"10","category":"Otros","description":"x","payment_method":"Efectivo","date":"12/04/2025"}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown type",
			body: `{"type":"PRESTAMO","amount":"10","category":"Otros","description":"x","payment_method":"Efectivo","date":"2025-04-12"}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "empty description",
			body: `{"type":"GASTO","amount":"10","category":"Otros","description":"  ","payment_method":"Efectivo","date":"2025-04-12"}`,
			want: http.StatusUnprocessableEntity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, "/api/movements", "ale", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d, body: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestServer_ConfirmMovement(t *testing.T) {
	s := newTestServer()

	body := `{"type":"GASTO","amount":"10","category":"Otros","description":"pendiente","payment_method":"Efectivo","date":"2025-04-12","status":"PENDING"}`
	rec := doRequest(t, s, http.MethodPost, "/api/movements", "ale", body)
	var created movementJSON
	decodeBody(t, rec, &created)

	rec = doRequest(t, s, http.MethodPost, "/api/movements/1/confirm", "ale", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var confirmed movementJSON
	decodeBody(t, rec, &confirmed)
	if confirmed.Status != "CONFIRMED" {
		t.Errorf("status = %q, want CONFIRMED", confirmed.Status)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/movements/999/confirm", "ale", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("confirm missing status = %d, want 404", rec.Code)
	}
}

func TestServer_UpdateAndDeleteMovement(t *testing.T) {
	s := newTestServer()

	body := `{"type":"GASTO","amount":"10","category":"Otros","description":"original","payment_method":"Efectivo","date":"2025-04-12"}`
	doRequest(t, s, http.MethodPost, "/api/movements", "ale", body)

	rec := doRequest(t, s, http.MethodPatch, "/api/movements/1", "ale", `{"description":"editado","amount":"25,50"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var updated movementJSON
	decodeBody(t, rec, &updated)
	if updated.Description != "editado" || updated.AmountCents != 2550 {
		t.Errorf("updated = %q / %d cents", updated.Description, updated.AmountCents)
	}

	rec = doRequest(t, s, http.MethodPatch, "/api/movements/999", "ale", `{"description":"x"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("patch missing status = %d, want 404", rec.Code)
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/movements/1", "ale", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	rec = doRequest(t, s, http.MethodDelete, "/api/movements/1", "ale", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestServer_Summary(t *testing.T) {
	s := newTestServer()

	seed := []string{
		`{"type":"INGRESO","amount_cents":1000000,"category":"Sueldo","description":"sueldo","payment_method":"Transferencia Bancaria","date":"2025-04-01"}`,
		`{"type":"GASTO","amount_cents":300000,"category":"Hogar","description":"alquiler","payment_method":"Transferencia Bancaria","date":"2025-04-02"}`,
		`{"type":"AHORRO","amount_cents":100000,"category":"Inversión","description":"plazo fijo","payment_method":"Transferencia Bancaria","date":"2025-04-03"}`,
	}
	for _, b := range seed {
		rec := doRequest(t, s, http.MethodPost, "/api/movements", "ale", b)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed status = %d, body: %s", rec.Code, rec.Body.String())
		}
	}

	rec := doRequest(t, s, http.MethodGet, "/api/summary", "ale", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rec.Code)
	}
	var sum struct {
		IncomeCents  int64 `json:"income_cents"`
		BalanceCents int64 `json:"balance_cents"`
	}
	decodeBody(t, rec, &sum)
	if sum.IncomeCents != 1000000 {
		t.Errorf("income_cents = %d", sum.IncomeCents)
	}
	if sum.BalanceCents != 600000 {
		t.Errorf("balance_cents = %d, want 600000", sum.BalanceCents)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/summary/monthly?year=2025", "ale", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("monthly status = %d", rec.Code)
	}
	var monthly struct {
		Year   int `json:"year"`
		Months []struct {
			Month        int   `json:"month"`
			BalanceCents int64 `json:"balance_cents"`
		} `json:"months"`
	}
	decodeBody(t, rec, &monthly)
	if len(monthly.Months) != 12 {
		t.Fatalf("months = %d, want 12", len(monthly.Months))
	}
	if monthly.Months[3].BalanceCents != 700000 {
		t.Errorf("april = %d, want 700000 (savings excluded)", monthly.Months[3].BalanceCents)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/summary/monthly?year=abc", "ale", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad year status = %d, want 422", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/summary/personal", "ale", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("personal status = %d", rec.Code)
	}
	var personal struct {
		Members []struct {
			MemberID      string `json:"member_id"`
			IncomeCents   int64  `json:"income_cents"`
			ExpensesCents int64  `json:"expenses_cents"`
		} `json:"members"`
	}
	decodeBody(t, rec, &personal)
	if len(personal.Members) != 2 {
		t.Fatalf("personal members = %d, want both configured members", len(personal.Members))
	}
	for _, m := range personal.Members {
		if m.MemberID == "ale" && m.ExpensesCents != 400000 {
			t.Errorf("ale expenses = %d, gasto and ahorro merge", m.ExpensesCents)
		}
		if m.MemberID == "silvi" && (m.IncomeCents != 0 || m.ExpensesCents != 0) {
			t.Errorf("silvi totals should be zero, got %+v", m)
		}
	}
}

func TestServer_MembersAndCatalog(t *testing.T) {
	s := newTestServer()

	rec := doRequest(t, s, http.MethodGet, "/api/members", "ale", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("members status = %d", rec.Code)
	}
	var members struct {
		Members []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		} `json:"members"`
	}
	decodeBody(t, rec, &members)
	if len(members.Members) != 2 || members.Members[0].ID != "ale" {
		t.Errorf("members = %+v", members.Members)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/catalog", "ale", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("catalog status = %d", rec.Code)
	}
	var catalog struct {
		Categories         []struct{ Label, Value string } `json:"categories"`
		PaymentMethods     []string                        `json:"payment_methods"`
		InstallmentOptions []int                           `json:"installment_options"`
	}
	decodeBody(t, rec, &catalog)
	if len(catalog.Categories) == 0 || len(catalog.PaymentMethods) == 0 {
		t.Error("catalog should list categories and payment methods")
	}
}

func TestServer_SecurityHeaders(t *testing.T) {
	s := newTestServer()

	rec := doRequest(t, s, http.MethodGet, "/api/movements", "ale", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("Content-Security-Policy"); got == "" {
		t.Error("Content-Security-Policy header missing")
	}
}
