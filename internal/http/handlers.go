package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	logpkg "bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/sheets"
)

type errorResponse struct {
	Error string `json:"error"`
}

type monthInfo struct {
	Name   string `json:"name"`
	Period int    `json:"period"`
	Start  string `json:"start"`
}

type rowResponse struct {
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Category    string   `json:"category,omitempty"`
	Account     string   `json:"account,omitempty"`
	Amount      *string  `json:"amount"`
	Source      string   `json:"source"`
	Balances    []string `json:"balances"`
	NetWorth    string   `json:"net_worth"`
}

type monthResponse struct {
	Month    string        `json:"month"`
	Accounts []string      `json:"accounts"`
	Rows     []rowResponse `json:"rows"`
}

type queuedResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady checks that the store answers for the first configured month.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	first := s.svc.Config().Months[0]
	if _, err := s.svc.Month(r.Context(), first); err != nil && !errors.Is(err, sheets.ErrMonthNotFound) {
		logpkg.FromContext(r.Context()).ErrorContext(r.Context(), "Readiness check failed", logpkg.FieldError, err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleListMonths(w http.ResponseWriter, r *http.Request) {
	cfg := s.svc.Config()
	out := make([]monthInfo, 0, len(cfg.Months))
	for i, name := range cfg.Months {
		out = append(out, monthInfo{Name: name, Period: i + 1, Start: cfg.Window(i + 1).Start.String()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "month"))
	cfg := s.svc.Config()

	known := false
	for _, m := range cfg.Months {
		if m == name {
			known = true
			break
		}
	}
	if !known {
		writeError(w, http.StatusNotFound, "unknown month "+name)
		return
	}

	rows, err := s.svc.Month(r.Context(), name)
	if errors.Is(err, sheets.ErrMonthNotFound) {
		writeError(w, http.StatusNotFound, "month "+name+" has not been written yet")
		return
	}
	if err != nil {
		logpkg.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to read month ledger",
			logpkg.FieldMonth, name,
			logpkg.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to read month ledger")
		return
	}

	resp := monthResponse{
		Month:    name,
		Accounts: append([]string{}, cfg.Axis...),
		Rows:     make([]rowResponse, 0, len(rows)),
	}
	for _, lr := range rows {
		resp.Rows = append(resp.Rows, toRowResponse(lr))
	}
	writeJSON(w, http.StatusOK, resp)
}

func toRowResponse(lr core.LedgerRow) rowResponse {
	out := rowResponse{
		Date:        lr.Date.String(),
		Description: lr.Description,
		Category:    lr.Category,
		Account:     lr.Account,
		Source:      string(lr.Source),
		Balances:    make([]string, len(lr.Balances)),
		NetWorth:    core.FormatAmount(lr.NetWorth),
	}
	if lr.Amount != nil {
		a := core.FormatAmount(*lr.Amount)
		out.Amount = &a
	}
	for i, b := range lr.Balances {
		out.Balances[i] = core.FormatAmount(b)
	}
	return out
}

// handleRebuild queues a rebuild when a worker queue is configured and runs it
// inline otherwise, or when queueing fails.
func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logpkg.FromContext(ctx)
	runID := uuid.NewString()

	if s.queue != nil {
		req := amqp.NewRebuildRequest(runID, "http")
		err := s.queue.PublishRebuildRequest(ctx, req)
		if err == nil {
			writeJSON(w, http.StatusAccepted, queuedResponse{RunID: runID, Status: "queued"})
			return
		}
		logger.WarnContext(ctx, "Failed to queue rebuild, running inline",
			logpkg.FieldRunID, runID,
			logpkg.FieldError, err)
	}

	ctx, cancel := context.WithTimeout(ctx, rebuildTimeout)
	defer cancel()

	summary, err := s.svc.Rebuild(ctx, runID)
	if err != nil {
		logger.ErrorContext(ctx, "Rebuild failed", logpkg.FieldRunID, runID, logpkg.FieldError, err)
		writeError(w, http.StatusInternalServerError, "rebuild failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, services.NewLedgerRebuiltEvent(summary))
}
