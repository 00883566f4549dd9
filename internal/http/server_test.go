package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"tally/internal/auth"
	"tally/internal/log"
	"tally/internal/services"
	"tally/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo, err := storage.New(filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	authManager := auth.NewManager("test-secret-test-secret", time.Hour)
	expenses := services.NewExpenseService(repo, nil)
	generator := services.NewGenerator(repo)
	logger := log.New(log.Config{
		Handler: slog.NewTextHandler(io.Discard, nil),
	})

	srv := NewServer("0", repo, expenses, generator, authManager, logger)
	t.Cleanup(func() { srv.limiter.stop() })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "127.0.0.1:12345"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func registerUser(t *testing.T, srv *Server, email string) (token string) {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    email,
		"password": "password123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}
	return decodeBody[authResponse](t, rec).Token
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)

	token := registerUser(t, srv, "mario@example.com")
	if token == "" {
		t.Fatal("register should return a token")
	}

	rec := doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "mario@example.com",
		"password": "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "mario@example.com",
		"password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/categories", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/categories", "not-a-real-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestWorkspaceMembershipEnforced(t *testing.T) {
	srv := newTestServer(t)

	registerUser(t, srv, "mario@example.com")
	luigi := registerUser(t, srv, "luigi@example.com")

	// Find mario's workspace through his own token.
	marioToken := registerUser(t, srv, "mario2@example.com")
	rec := doJSON(t, srv, http.MethodGet, "/workspace", marioToken, nil)
	marioWS := decodeBody[workspaceDTO](t, rec)

	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	req.RemoteAddr = "127.0.0.1:12345"
	req.Header.Set("Authorization", "Bearer "+luigi)
	req.Header.Set("X-Workspace-ID", marioWS.ID)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("cross-workspace status = %d, want 403", w.Code)
	}
}

func TestCategoryLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "mario@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/categories", token, map[string]string{"name": "Food"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[categoryDTO](t, rec)

	rec = doJSON(t, srv, http.MethodPost, "/categories", token, map[string]string{"name": "food"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/categories", token, nil)
	cats := decodeBody[[]categoryDTO](t, rec)
	// The registration seeds the system category.
	if len(cats) != 2 {
		t.Errorf("categories = %d, want 2", len(cats))
	}

	rec = doJSON(t, srv, http.MethodDelete, "/categories/"+created.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}

	for _, c := range cats {
		if c.IsSystem {
			rec = doJSON(t, srv, http.MethodDelete, "/categories/"+c.ID, token, nil)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("system delete status = %d, want 422", rec.Code)
			}
		}
	}
}

func TestKeywordMappingValidation(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "mario@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/keyword-mappings", token, map[string]any{
		"keyword": "mcd",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("no-target status = %d, want 422", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/keyword-mappings", token, map[string]any{
		"keyword":     "mcd",
		"expenseType": "lifestyle",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPost, "/keyword-mappings", token, map[string]any{
		"keyword":     " MCD ",
		"expenseType": "lifestyle",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("normalized duplicate status = %d, want 409", rec.Code)
	}
}

func TestQuickAddResolvesKeywords(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "mario@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/categories", token, map[string]string{"name": "Food"})
	cat := decodeBody[categoryDTO](t, rec)

	rec = doJSON(t, srv, http.MethodPost, "/keyword-mappings", token, map[string]any{
		"keyword":    "mcd",
		"categoryId": cat.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("mapping status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/expenses/quick-add", token, map[string]string{
		"text": "mcd 12.50",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("quick-add status = %d, body %s", rec.Code, rec.Body.String())
	}
	expense := decodeBody[expenseDTO](t, rec)
	if expense.AmountCents != 1250 {
		t.Errorf("amountCents = %d, want 1250", expense.AmountCents)
	}
	if expense.CategoryID == nil || *expense.CategoryID != cat.ID {
		t.Errorf("categoryId = %v, want %s", expense.CategoryID, cat.ID)
	}

	rec = doJSON(t, srv, http.MethodPost, "/expenses/quick-add", token, map[string]string{
		"text": "no amount",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("no-amount status = %d, want 422", rec.Code)
	}
}

func TestGenerateEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "mario@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/recurring-templates", token, map[string]any{
		"name":        "Rent",
		"amount":      "799.00",
		"expenseType": "fixed_survival",
		"dayOfMonth":  1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("template status = %d, body %s", rec.Code, rec.Body.String())
	}

	body := map[string]any{"month": 2, "year": 2025}
	rec = doJSON(t, srv, http.MethodPost, "/recurring-templates/generate", token, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate status = %d, body %s", rec.Code, rec.Body.String())
	}
	first := decodeBody[generateResponse](t, rec)
	if !first.Success || first.Generated != 1 {
		t.Errorf("first run = %+v, want 1 generated", first)
	}
	if first.Month != "March 2025" {
		t.Errorf("month = %q, want March 2025", first.Month)
	}

	rec = doJSON(t, srv, http.MethodPost, "/recurring-templates/generate", token, body)
	second := decodeBody[generateResponse](t, rec)
	if second.Generated != 0 || second.Skipped != 1 {
		t.Errorf("second run = %+v, want 0 generated 1 skipped", second)
	}

	rec = doJSON(t, srv, http.MethodPost, "/recurring-templates/generate", token,
		map[string]any{"month": 12})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid month status = %d, want 422", rec.Code)
	}
}

func TestExpensePatchUpdate(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "mario@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/expenses", token, map[string]any{
		"name":   "dinner",
		"amount": "30.00",
		"type":   "lifestyle",
		"date":   "2025-03-10",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[expenseDTO](t, rec)

	rec = doJSON(t, srv, http.MethodPut, "/expenses/"+created.ID, token, map[string]any{
		"name":       "team dinner",
		"categoryId": nil,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[expenseDTO](t, rec)
	if updated.Name != "team dinner" {
		t.Errorf("name = %q", updated.Name)
	}
	if updated.CategoryID != nil {
		t.Errorf("categoryId should be cleared, got %v", *updated.CategoryID)
	}
	if updated.AmountCents != 3000 {
		t.Errorf("amountCents = %d, want untouched 3000", updated.AmountCents)
	}
}

func TestDashboardBudget(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "mario@example.com")

	rec := doJSON(t, srv, http.MethodPut, "/workspace", token, map[string]any{
		"monthlyBudgetCents": 100000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("workspace update status = %d, body %s", rec.Code, rec.Body.String())
	}

	for _, amount := range []string{"10.00", "5.00"} {
		rec = doJSON(t, srv, http.MethodPost, "/expenses", token, map[string]any{
			"name":   "x",
			"amount": amount,
			"type":   "lifestyle",
			"date":   "2025-03-10",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expense status = %d", rec.Code)
		}
	}

	rec = doJSON(t, srv, http.MethodGet, "/dashboard/budget?year=2025&month=3", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("budget status = %d", rec.Code)
	}
	budget := decodeBody[budgetResponse](t, rec)
	if budget.TotalCents != 1500 {
		t.Errorf("totalCents = %d, want 1500", budget.TotalCents)
	}
	if budget.RemainingCents == nil || *budget.RemainingCents != 98500 {
		t.Errorf("remainingCents = %v, want 98500", budget.RemainingCents)
	}

	rec = doJSON(t, srv, http.MethodGet, "/dashboard/burn?year=2025&month=3", token, nil)
	burn := decodeBody[burnResponse](t, rec)
	if len(burn.Points) != 1 || burn.Points[0].CumulativeCents != 1500 {
		t.Errorf("burn = %+v", burn)
	}
}

func TestImportEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "mario@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/imports", token, map[string]any{
		"source": "bank-csv",
		"rows":   []string{"spesa conad 43,20", "mcd 12.50", "garbage row"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("import status = %d, body %s", rec.Code, rec.Body.String())
	}
	log := decodeBody[importLogDTO](t, rec)
	if log.ImportedCount != 2 || log.SkippedCount != 1 {
		t.Errorf("import counts = %+v", log)
	}

	rec = doJSON(t, srv, http.MethodGet, "/imports", token, nil)
	logs := decodeBody[[]importLogDTO](t, rec)
	if len(logs) != 1 {
		t.Errorf("logs = %d, want 1", len(logs))
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d", rec.Code)
	}
}
