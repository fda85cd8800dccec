package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"pocketspend/internal/core"
	"pocketspend/internal/log"
	"pocketspend/internal/remote"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady checks that the database answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{
		"rate_limiter": map[string]any{"active_clients": s.rateLimiter.ActiveClients()},
	}
	if err := s.repo.Ping(ctx); err != nil {
		checks["database"] = fmt.Sprintf("failed: %v", err)
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics reports counters in Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	limitMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()

	metric := func(name, kind, help string, v any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, v)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("expenses_created_total", "counter", "Expenses created", atomic.LoadInt64(&s.expensesTotal))
	metric("expenses_deleted_total", "counter", "Expenses deleted", atomic.LoadInt64(&s.deletedTotal))
	metric("rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", limitMetrics.TotalHits)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", limitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Probing requests rejected", securityMetrics.SuspiciousRequests)
	metric("blocked_requests_total", "counter", "Requests rejected for their method", securityMetrics.BlockedRequests)
	metric("uptime_seconds", "gauge", "Server uptime in seconds", fmt.Sprintf("%.0f", time.Since(s.started).Seconds()))
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.repo.ListUsers(r.Context())
	if err != nil {
		s.internalError(w, r, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.repo.ListExpenses(r.Context())
	if err != nil {
		s.internalError(w, r, "list expenses", err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

// handleCreateExpense stores the posted record. The server assigns the id;
// everything else, createdAt included, is kept as sent.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in core.Expense
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Amount) == "" {
		writeError(w, http.StatusUnprocessableEntity, "name and amount are required")
		return
	}

	created, err := s.repo.CreateExpense(r.Context(), in)
	if err != nil {
		s.internalError(w, r, "create expense", err)
		return
	}
	s.countCreated()
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		log.FieldExpenseID, created.ID,
		log.FieldAmount, created.Amount)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	deleted, err := s.repo.DeleteExpense(r.Context(), id)
	if errors.Is(err, remote.ErrNotFound) {
		writeError(w, http.StatusNotFound, "expense not found")
		return
	}
	if err != nil {
		s.internalError(w, r, "delete expense", err)
		return
	}
	s.countDeleted()
	writeJSON(w, http.StatusOK, deleted)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.errLog.LogError(r.Context(), "Request failed", err, op, nil)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
