package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"paydash/internal/core"
	"paydash/internal/insights"
	"paydash/internal/log"
	"paydash/internal/store"
)

const maxImportBytes = 10 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Transactions())
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.store.AddTransaction(r.Context(), tx)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.structured.LogTransactionAdded(r.Context(), created.ID, created.Merchant, created.Amount.Cents, created.Category)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var patch store.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.store.UpdateTransaction(r.Context(), r.PathValue("id"), patch); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Categories())
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.store.AddCategory(r.Context(), strings.TrimSpace(req.Name)); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, s.store.Categories())
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCategory(r.Context(), r.PathValue("name")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImport replaces the whole collection from an uploaded JSON file.
// Both multipart uploads (field "file") and raw JSON bodies are accepted.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	var txs []core.Transaction
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer file.Close()
		if err := json.NewDecoder(file).Decode(&txs); err != nil {
			writeError(w, http.StatusBadRequest, "file is not a valid transaction export")
			return
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&txs); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Import rejected",
				log.FieldError, err.Error())
			writeError(w, http.StatusBadRequest, "body is not a valid transaction export")
			return
		}
	}

	if err := s.store.ImportTransactions(r.Context(), txs); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": len(txs)})
}

// handleExport streams the collection as a downloadable JSON file named
// payment-history-<date>.json.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.ExportTransactions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filename := fmt.Sprintf("payment-history-%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleClear wipes both collections. The destructive action requires an
// explicit confirm=true query parameter.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "clearing all data requires confirm=true")
		return
	}

	if err := s.store.ClearAllData(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type summaryResponse struct {
	core.MonthSummary
	Breakdown []core.CategoryShare `json:"breakdown"`
	Prev      string               `json:"prev"`
	Next      string               `json:"next,omitempty"`
}

// handleSummaryAll serves every month present in the collection, keyed by
// YYYY-MM.
func (s *Server) handleSummaryAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.Summarize(s.store.Transactions()))
}

// handleSummary serves the aggregate for one month. Navigation keys are
// included; next is omitted at the current month.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month := r.PathValue("month")
	if _, err := core.ParseMonthKey(month); err != nil {
		writeError(w, http.StatusBadRequest, "invalid month key, want YYYY-MM")
		return
	}

	txs := s.store.Transactions()
	resp := summaryResponse{
		MonthSummary: core.SummarizeMonth(txs, month),
		Breakdown:    core.Breakdown(txs, month),
	}
	if prev, err := core.PrevMonth(month); err == nil {
		resp.Prev = prev
	}
	if next, err := core.NextMonth(month); err == nil {
		resp.Next = next
	}
	writeJSON(w, http.StatusOK, resp)
}

type insightResponse struct {
	Insight core.Insight `json:"insight"`
	Busy    bool         `json:"busy"`
}

func (s *Server) handleGetInsight(w http.ResponseWriter, r *http.Request) {
	if s.insights == nil {
		writeError(w, http.StatusServiceUnavailable, "analysis not configured")
		return
	}

	month := r.PathValue("month")
	if _, err := core.ParseMonthKey(month); err != nil {
		writeError(w, http.StatusBadRequest, "invalid month key, want YYYY-MM")
		return
	}

	insight, ok := s.insights.Get(month)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": "no analysis for month",
			"busy":  s.insights.Busy(),
		})
		return
	}
	writeJSON(w, http.StatusOK, insightResponse{Insight: insight, Busy: s.insights.Busy()})
}

// handleReanalyze runs a fresh analysis for the month, replacing any cached
// insight. Only one analysis may run at a time.
func (s *Server) handleReanalyze(w http.ResponseWriter, r *http.Request) {
	if s.insights == nil {
		writeError(w, http.StatusServiceUnavailable, "analysis not configured")
		return
	}

	insight, err := s.insights.Reanalyze(r.Context(), r.PathValue("month"))
	switch {
	case errors.Is(err, insights.ErrAnalysisInFlight):
		writeError(w, http.StatusConflict, "analysis already in progress")
		return
	case errors.Is(err, core.ErrInvalidMonthKey):
		writeError(w, http.StatusBadRequest, "invalid month key, want YYYY-MM")
		return
	case err != nil:
		s.structured.LogError(r.Context(), "Analysis failed", err, log.OpAnalyze,
			log.NewFields().WithMonth(r.PathValue("month")))
		writeError(w, http.StatusBadGateway, "analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, insightResponse{Insight: insight})
}
