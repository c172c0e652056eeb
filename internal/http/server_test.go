package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"splitfair/internal/amqp"
	"splitfair/internal/core"
	"splitfair/internal/services"
	"splitfair/internal/storage"
)

type nopPublisher struct{}

func (nopPublisher) PublishNotification(context.Context, *amqp.NotificationMessage) error {
	return nil
}

type testEnv struct {
	srv   *httptest.Server
	repo  *storage.SQLiteRepository
	alice uuid.UUID
	bob   uuid.UUID
	group uuid.UUID
	bill  uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ledger := services.NewLedgerService(repo, nopPublisher{}, core.DerivePolicy{})
	notifications := services.NewNotificationService(repo, nopPublisher{})
	server := NewServer(":0", ledger, notifications, repo, nil)

	env := &testEnv{
		srv:  httptest.NewServer(server.Handler),
		repo: repo,
	}
	t.Cleanup(env.srv.Close)

	ctx := context.Background()
	alice := core.User{UserName: "alice", Email: "alice@example.com"}
	bob := core.User{UserName: "bob", Email: "bob@example.com"}
	for _, u := range []*core.User{&alice, &bob} {
		if err := repo.CreateUser(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	group := core.Group{Name: "trip", Members: []uuid.UUID{alice.ID, bob.ID}}
	if err := repo.CreateGroup(ctx, &group); err != nil {
		t.Fatalf("create group: %v", err)
	}
	bill := core.Bill{GroupID: group.ID, Name: "hotel"}
	if err := repo.CreateBill(ctx, &bill); err != nil {
		t.Fatalf("create bill: %v", err)
	}

	env.alice, env.bob, env.group, env.bill = alice.ID, bob.ID, group.ID, bill.ID
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		resp := env.do(t, http.MethodGet, path, nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestUserEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/users", map[string]string{
		"user_name": "carol", "email": "carol@example.com",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create user = %d, want 201", resp.StatusCode)
	}
	created := decode[userDTO](t, resp)
	if created.UserName != "carol" {
		t.Errorf("user_name = %s", created.UserName)
	}

	resp = env.do(t, http.MethodGet, "/users/"+created.ID.String(), nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("get user = %d, want 200", resp.StatusCode)
	}

	resp = env.do(t, http.MethodGet, "/users/"+uuid.NewString(), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get unknown user = %d, want 404", resp.StatusCode)
	}

	resp = env.do(t, http.MethodGet, "/users/not-a-uuid", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("get malformed id = %d, want 400", resp.StatusCode)
	}

	resp = env.do(t, http.MethodPost, "/users", map[string]string{"email": "x@example.com"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("create user without name = %d, want 422", resp.StatusCode)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/expenses", map[string]any{
		"bill_id":     env.bill,
		"description": "dinner",
		"amount":      "100",
		"paid_by":     env.alice,
		"created_by":  env.alice,
		"allocations": []map[string]any{
			{"user_id": env.alice, "percentage": "50"},
			{"user_id": env.bob, "percentage": "50"},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create expense = %d, want 201", resp.StatusCode)
	}
	expense := decode[expenseDTO](t, resp)
	if expense.Amount != "100.00" {
		t.Errorf("amount = %s, want 100.00", expense.Amount)
	}

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/expenses/%s/shares", expense.ID), nil)
	shares := decode[[]shareDTO](t, resp)
	if len(shares) != 2 {
		t.Fatalf("got %d shares, want 2", len(shares))
	}

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/expenses/%s/debts", expense.ID), nil)
	debts := decode[[]debtDTO](t, resp)
	if len(debts) != 1 {
		t.Fatalf("got %d debts, want 1", len(debts))
	}
	if debts[0].FromUser != env.bob || debts[0].ToUser != env.alice {
		t.Errorf("debt direction wrong: %+v", debts[0])
	}
	if debts[0].Amount != "50.00" {
		t.Errorf("debt amount = %s, want 50.00", debts[0].Amount)
	}

	// shrink the expense; shares re-proportion, bill total follows
	resp = env.do(t, http.MethodPatch, "/expenses/"+expense.ID.String(), map[string]any{
		"amount": "60",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update expense = %d, want 200", resp.StatusCode)
	}

	resp = env.do(t, http.MethodGet, "/bills/"+env.bill.String(), nil)
	bill := decode[billDTO](t, resp)
	if bill.TotalAmount != "60.00" {
		t.Errorf("bill total = %s, want 60.00", bill.TotalAmount)
	}
	if bill.Status != "ACTIVE" {
		t.Errorf("bill status = %s, want ACTIVE", bill.Status)
	}

	// mark bob's share paid; his debt settles
	var bobShare shareDTO
	resp = env.do(t, http.MethodGet, fmt.Sprintf("/expenses/%s/shares", expense.ID), nil)
	for _, s := range decode[[]shareDTO](t, resp) {
		if s.UserID == env.bob {
			bobShare = s
		}
	}
	resp = env.do(t, http.MethodPatch, fmt.Sprintf("/shares/%s/status", bobShare.ID), map[string]string{
		"status": "PAID",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update share status = %d, want 200", resp.StatusCode)
	}
	resp = env.do(t, http.MethodGet, fmt.Sprintf("/expenses/%s/debts", expense.ID), nil)
	debts = decode[[]debtDTO](t, resp)
	if debts[0].Status != "SETTLED" {
		t.Errorf("debt status = %s, want SETTLED", debts[0].Status)
	}

	resp = env.do(t, http.MethodGet, "/bills/"+env.bill.String()+"/consistency", nil)
	check := decode[consistencyResponse](t, resp)
	if !check.Consistent {
		t.Errorf("bill flagged inconsistent: %s", check.Detail)
	}

	resp = env.do(t, http.MethodDelete, "/expenses/"+expense.ID.String(), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete expense = %d, want 204", resp.StatusCode)
	}
	resp = env.do(t, http.MethodGet, "/bills/"+env.bill.String(), nil)
	bill = decode[billDTO](t, resp)
	if bill.TotalAmount != "0.00" {
		t.Errorf("bill total after delete = %s, want 0.00", bill.TotalAmount)
	}
}

func TestSaveAllocationsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/expenses", map[string]any{
		"bill_id":     env.bill,
		"description": "taxi",
		"amount":      "90",
		"paid_by":     env.alice,
		"created_by":  env.alice,
	})
	expense := decode[expenseDTO](t, resp)

	resp = env.do(t, http.MethodPut, fmt.Sprintf("/expenses/%s/allocations", expense.ID), map[string]any{
		"total": "90",
		"shares": []map[string]any{
			{"user_id": env.alice, "amount": "60"},
			{"user_id": env.bob, "amount": "30"},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save allocations = %d, want 200", resp.StatusCode)
	}
	shares := decode[[]shareDTO](t, resp)
	if len(shares) != 2 {
		t.Fatalf("got %d shares, want 2", len(shares))
	}
	for _, s := range shares {
		if s.UserID == env.bob && s.Percentage != "33.33" {
			t.Errorf("bob implied percentage = %s, want 33.33", s.Percentage)
		}
	}
}

func TestCreateExpenseValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/expenses", map[string]any{
		"description": "bad",
		"amount":      "-5",
		"created_by":  env.alice,
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("negative amount = %d, want 422", resp.StatusCode)
	}

	resp = env.do(t, http.MethodPost, "/expenses", map[string]any{
		"description": "ghost bill",
		"amount":      "5",
		"created_by":  env.alice,
		"bill_id":     uuid.New(),
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown bill = %d, want 404", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, env.srv.URL+"/expenses", bytes.NewBufferString("{not json"))
	badResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer badResp.Body.Close()
	if badResp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed JSON = %d, want 400", badResp.StatusCode)
	}
}

func TestUserDebtQueries(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/expenses", map[string]any{
		"bill_id":     env.bill,
		"description": "museum",
		"amount":      "40",
		"paid_by":     env.alice,
		"created_by":  env.alice,
		"allocations": []map[string]any{
			{"user_id": env.bob, "percentage": "100"},
		},
	})

	resp := env.do(t, http.MethodGet, "/users/"+env.bob.String()+"/debts", nil)
	owing := decode[[]debtDTO](t, resp)
	if len(owing) != 1 || owing[0].Amount != "40.00" {
		t.Errorf("bob owing = %+v", owing)
	}

	resp = env.do(t, http.MethodGet, "/users/"+env.alice.String()+"/debts?direction=owed", nil)
	owed := decode[[]debtDTO](t, resp)
	if len(owed) != 1 || owed[0].FromUser != env.bob {
		t.Errorf("alice owed = %+v", owed)
	}

	resp = env.do(t, http.MethodGet, "/users/"+env.bob.String()+"/debts?direction=sideways", nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("bad direction = %d, want 422", resp.StatusCode)
	}
}

func TestGroupStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	for _, amount := range []string{"30", "20"} {
		env.do(t, http.MethodPost, "/expenses", map[string]any{
			"bill_id":     env.bill,
			"description": "snack",
			"amount":      amount,
			"paid_by":     env.alice,
			"created_by":  env.alice,
		})
	}

	resp := env.do(t, http.MethodGet, "/groups/"+env.group.String()+"/stats", nil)
	stats := decode[[]statDTO](t, resp)
	if len(stats) != 1 {
		t.Fatalf("got %d stats, want 1", len(stats))
	}
	if stats[0].UserID != env.alice || stats[0].TotalPaid != "50.00" {
		t.Errorf("stat = %+v", stats[0])
	}
}

func TestNotificationEndpoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	n := core.Notification{
		UserID:   env.bob,
		Title:    "New expense",
		Message:  "You were allocated 30.00",
		Category: core.NotifyExpenseAdded,
	}
	if err := env.repo.InsertNotification(ctx, &n); err != nil {
		t.Fatalf("insert notification: %v", err)
	}

	resp := env.do(t, http.MethodGet, "/users/"+env.bob.String()+"/notifications", nil)
	list := decode[[]notificationDTO](t, resp)
	if len(list) != 1 || list[0].Title != "New expense" {
		t.Fatalf("notifications = %+v", list)
	}

	resp = env.do(t, http.MethodGet, "/users/"+env.bob.String()+"/notifications/unread-count", nil)
	count := decode[unreadCountResponse](t, resp)
	if count.Unread != 1 {
		t.Errorf("unread = %d, want 1", count.Unread)
	}

	resp = env.do(t, http.MethodPost, "/notifications/"+list[0].ID.String()+"/read", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("mark read = %d, want 204", resp.StatusCode)
	}

	resp = env.do(t, http.MethodGet, "/users/"+env.bob.String()+"/notifications/unread-count", nil)
	count = decode[unreadCountResponse](t, resp)
	if count.Unread != 0 {
		t.Errorf("unread after read = %d, want 0", count.Unread)
	}
}
