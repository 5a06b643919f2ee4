package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
	"github.com/vensonaa/enterprise-invoice-automation/internal/store"
)

// extractionRunner runs the staged extraction pipeline on a document.
type extractionRunner interface {
	Run(ctx context.Context, sourceRef string) *model.ExtractionResult
}

// invoiceAssistant answers questions about extracted invoice data.
type invoiceAssistant interface {
	Ask(ctx context.Context, fields model.InvoiceFields, question string) (string, error)
	SuggestQuestions(ctx context.Context, fields model.InvoiceFields) ([]string, error)
}

// apiHandler wires the HTTP API to the store, pipeline, and assistant.
// baseCtx outlives individual requests; async extraction runs on it so an
// upload response does not cancel the work it scheduled.
type apiHandler struct {
	store     store.Store
	pipeline  extractionRunner
	assistant invoiceAssistant
	uploadDir string
	baseCtx   context.Context
}

func newRouter(h *apiHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", h.health)

	r.Route("/invoices", func(r chi.Router) {
		r.Post("/", h.uploadInvoice)
		r.Get("/", h.listInvoices)
		r.Delete("/", h.deleteAllInvoices)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getInvoice)
			r.Delete("/", h.deleteInvoice)
			r.Post("/reprocess", h.reprocessInvoice)
			r.Post("/questions", h.suggestQuestions)
		})
	})

	r.Post("/chat", h.chat)

	return r
}

func (h *apiHandler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *apiHandler) uploadInvoice(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".pdf" && ext != ".txt" {
		writeError(w, http.StatusBadRequest, "only PDF and plain-text invoices are supported")
		return
	}

	inv, err := h.store.CreateInvoice(r.Context(), header.Filename)
	if err != nil {
		zap.L().Error("create invoice failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create invoice record")
		return
	}

	path := h.storedPath(inv)
	if err := saveUpload(file, path); err != nil {
		zap.L().Error("save upload failed", zap.String("path", path), zap.Error(err))
		_ = h.store.DeleteInvoice(r.Context(), inv.ID)
		writeError(w, http.StatusInternalServerError, "failed to save uploaded file")
		return
	}

	h.processAsync(inv, path)

	writeJSON(w, http.StatusAccepted, inv)
}

func (h *apiHandler) listInvoices(w http.ResponseWriter, r *http.Request) {
	filter := store.InvoiceFilter{
		Status: model.Status(r.URL.Query().Get("status")),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	invoices, err := h.store.ListInvoices(r.Context(), filter)
	if err != nil {
		zap.L().Error("list invoices failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list invoices")
		return
	}
	if invoices == nil {
		invoices = []model.Invoice{}
	}

	writeJSON(w, http.StatusOK, invoices)
}

func (h *apiHandler) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.lookupInvoice(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *apiHandler) reprocessInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.lookupInvoice(w, r)
	if !ok {
		return
	}

	path := h.storedPath(inv)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusConflict, "stored document is no longer available")
		return
	}

	if err := h.store.UpdateInvoiceStatus(r.Context(), inv.ID, model.StatusProcessing); err != nil {
		zap.L().Error("reset invoice status failed", zap.String("id", inv.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to reset invoice status")
		return
	}
	inv.Status = model.StatusProcessing

	h.processAsync(inv, path)

	writeJSON(w, http.StatusAccepted, inv)
}

func (h *apiHandler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.lookupInvoice(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteInvoice(r.Context(), inv.ID); err != nil {
		zap.L().Error("delete invoice failed", zap.String("id", inv.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete invoice")
		return
	}

	if err := os.Remove(h.storedPath(inv)); err != nil && !os.IsNotExist(err) {
		zap.L().Warn("delete stored document failed", zap.String("id", inv.ID), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, map[string]string{"deleted": inv.ID})
}

func (h *apiHandler) deleteAllInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.store.ListInvoices(r.Context(), store.InvoiceFilter{})
	if err != nil {
		zap.L().Error("list invoices failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list invoices")
		return
	}

	count, err := h.store.DeleteAllInvoices(r.Context())
	if err != nil {
		zap.L().Error("delete all invoices failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete invoices")
		return
	}

	for _, inv := range invoices {
		if err := os.Remove(h.storedPath(&inv)); err != nil && !os.IsNotExist(err) {
			zap.L().Warn("delete stored document failed", zap.String("id", inv.ID), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, map[string]int{"deleted": count})
}

func (h *apiHandler) chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InvoiceID string `json:"invoice_id"`
		Question  string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.InvoiceID == "" || req.Question == "" {
		writeError(w, http.StatusBadRequest, "invoice_id and question are required")
		return
	}

	inv, err := h.store.GetInvoice(r.Context(), req.InvoiceID)
	if err != nil {
		writeError(w, http.StatusNotFound, "invoice not found")
		return
	}
	if inv.Result == nil || inv.Status != model.StatusCompleted {
		writeError(w, http.StatusConflict, "invoice has no completed extraction to chat about")
		return
	}

	answer, err := h.assistant.Ask(r.Context(), inv.Result.ExtractedData, req.Question)
	if err != nil {
		zap.L().Error("chat failed", zap.String("id", inv.ID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "assistant request failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (h *apiHandler) suggestQuestions(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.lookupInvoice(w, r)
	if !ok {
		return
	}
	if inv.Result == nil || inv.Status != model.StatusCompleted {
		writeError(w, http.StatusConflict, "invoice has no completed extraction")
		return
	}

	questions, err := h.assistant.SuggestQuestions(r.Context(), inv.Result.ExtractedData)
	if err != nil {
		zap.L().Error("suggest questions failed", zap.String("id", inv.ID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "assistant request failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"questions": questions})
}

// processAsync runs extraction in the background and records the result.
func (h *apiHandler) processAsync(inv *model.Invoice, path string) {
	go func() {
		log := zap.L().With(zap.String("id", inv.ID), zap.String("file", inv.Filename))

		result := h.pipeline.Run(h.baseCtx, path)
		if err := h.store.UpdateInvoiceResult(h.baseCtx, inv.ID, result); err != nil {
			log.Error("save extraction result failed", zap.Error(err))
			return
		}

		if result.Status == model.StatusFailed {
			log.Warn("extraction failed", zap.String("error", result.ErrorMessage))
			return
		}
		log.Info("extraction complete",
			zap.Float64("overall_confidence", result.ConfidenceScores["overall"]),
			zap.Float64("processing_time", result.ProcessingTime),
		)
	}()
}

// lookupInvoice resolves the {id} path parameter, writing a 404 on miss.
func (h *apiHandler) lookupInvoice(w http.ResponseWriter, r *http.Request) (*model.Invoice, bool) {
	id := chi.URLParam(r, "id")
	inv, err := h.store.GetInvoice(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "invoice not found")
		return nil, false
	}
	return inv, true
}

// storedPath is where an invoice's uploaded document lives on disk. The ID
// prefix keeps same-named uploads from clobbering each other.
func (h *apiHandler) storedPath(inv *model.Invoice) string {
	return filepath.Join(h.uploadDir, inv.ID+"_"+filepath.Base(inv.Filename))
}

func saveUpload(src io.Reader, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
