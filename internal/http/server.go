// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"splitfair/internal/log"
	"splitfair/internal/services"
	"splitfair/internal/storage"
)

type Server struct {
	http.Server
	ledger        *services.LedgerService
	notifications *services.NotificationService
	storage       *storage.SQLiteRepository
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, ledger *services.LedgerService, notifications *services.NotificationService, store *storage.SQLiteRepository, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		ledger:        ledger,
		notifications: notifications,
		storage:       store,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /users", s.handleCreateUser)
	mux.HandleFunc("GET /users/{id}", s.handleGetUser)
	mux.HandleFunc("GET /users/{id}/expenses", s.handleUserExpenses)
	mux.HandleFunc("GET /users/{id}/shares", s.handleUserShares)
	mux.HandleFunc("GET /users/{id}/debts", s.handleUserDebts)
	mux.HandleFunc("GET /users/{id}/notifications", s.handleListNotifications)
	mux.HandleFunc("GET /users/{id}/notifications/unread-count", s.handleUnreadCount)
	mux.HandleFunc("POST /users/{id}/notifications/read-all", s.handleMarkAllRead)

	mux.HandleFunc("POST /groups", s.handleCreateGroup)
	mux.HandleFunc("GET /groups/{id}", s.handleGetGroup)
	mux.HandleFunc("GET /groups/{id}/expenses", s.handleGroupExpenses)
	mux.HandleFunc("GET /groups/{id}/stats", s.handleGroupStats)

	mux.HandleFunc("POST /bills", s.handleCreateBill)
	mux.HandleFunc("GET /bills/{id}", s.handleGetBill)
	mux.HandleFunc("GET /bills/{id}/expenses", s.handleBillExpenses)
	mux.HandleFunc("GET /bills/{id}/consistency", s.handleBillConsistency)

	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PATCH /expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("PUT /expenses/{id}/allocations", s.handleSaveAllocations)
	mux.HandleFunc("GET /expenses/{id}/shares", s.handleExpenseShares)
	mux.HandleFunc("POST /expenses/{id}/shares", s.handleAddShare)
	mux.HandleFunc("GET /expenses/{id}/debts", s.handleExpenseDebts)

	mux.HandleFunc("PATCH /shares/{id}/status", s.handleUpdateShareStatus)
	mux.HandleFunc("DELETE /shares/{id}", s.handleRemoveShare)

	mux.HandleFunc("POST /notifications/{id}/read", s.handleMarkRead)
	mux.HandleFunc("POST /debts/{id}/remind", s.handleRemindDebt)

	handler := http.Handler(mux)
	if logger != nil {
		handler = log.RequestLogger(logger)(handler)
		handler = log.Middleware(logger)(handler)
	}
	s.Handler = handler

	return s
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
