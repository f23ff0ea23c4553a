package ingest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vhrodrigues/notinha/internal/ai"
	"github.com/vhrodrigues/notinha/internal/category"
	"github.com/vhrodrigues/notinha/internal/extract"
	"github.com/vhrodrigues/notinha/internal/fetch"
	"github.com/vhrodrigues/notinha/internal/http/auth"
	"github.com/vhrodrigues/notinha/internal/invoice"
)

// maxUploadBytes caps XML and PDF uploads; fiscal coupons are well under this.
const maxUploadBytes = 8 << 20

type Handler struct {
	extractor *extract.Service
	invoices  *invoice.Service
}

func NewHandler(extractor *extract.Service, invoices *invoice.Service) *Handler {
	return &Handler{extractor: extractor, invoices: invoices}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/xml", h.ingestXML)
	r.Post("/pdf", h.ingestPDF)
	r.Post("/reference", h.ingestReference)
}

func (h *Handler) ingestXML(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		http.Error(w, "reading body", http.StatusBadRequest)
		return
	}

	parsed, err := h.extractor.ExtractXML(string(raw))
	if err != nil {
		writeExtractError(w, err)
		return
	}

	h.assemble(w, r, parsed, optionsFromQuery(r))
}

func (h *Handler) ingestPDF(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		http.Error(w, "reading body", http.StatusBadRequest)
		return
	}

	parsed, err := h.extractor.ExtractPDF(r.Context(), raw)
	if err != nil {
		writeExtractError(w, err)
		return
	}

	h.assemble(w, r, parsed, optionsFromQuery(r))
}

type referenceRequest struct {
	Payload       string `json:"payload"`
	ForceRefresh  bool   `json:"force_refresh"`
	Category      string `json:"category,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	AccountID     string `json:"account_id,omitempty"`
}

func (h *Handler) ingestReference(w http.ResponseWriter, r *http.Request) {
	var req referenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	parsed, err := h.extractor.ExtractReference(r.Context(), req.Payload, req.ForceRefresh)
	if err != nil {
		writeExtractError(w, err)
		return
	}

	opts := invoice.CreateOptions{}
	if c := category.Category(req.Category); c.Valid() {
		opts.CustomCategory = &c
	}

	if id, err := uuid.Parse(req.TransactionID); err == nil {
		opts.LinkedTransactionID = &id
	}

	if id, err := uuid.Parse(req.AccountID); err == nil {
		opts.LinkedAccountID = &id
	}

	h.assemble(w, r, parsed, opts)
}

func (h *Handler) assemble(w http.ResponseWriter, r *http.Request, parsed *extract.ParsedInvoice, opts invoice.CreateOptions) {
	created, err := h.invoices.Create(r.Context(), auth.UserID(r.Context()), parsed, opts)
	if err != nil {
		var dup *invoice.DuplicateError
		if errors.As(err, &dup) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)

			if err := json.NewEncoder(w).Encode(duplicateResponse{
				Message:    "invoice already ingested",
				ExistingID: dup.ExistingID,
				CreatedAt:  dup.CreatedAt,
			}); err != nil {
				slog.Error("failed to encode response", "error", err)
			}

			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(created, parsed.Metadata)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// optionsFromQuery reads the assembly overrides that raw-body uploads cannot
// carry in a JSON envelope.
func optionsFromQuery(r *http.Request) invoice.CreateOptions {
	opts := invoice.CreateOptions{}

	if c := category.Category(r.URL.Query().Get("category")); c.Valid() {
		opts.CustomCategory = &c
	}

	if id, err := uuid.Parse(r.URL.Query().Get("transaction_id")); err == nil {
		opts.LinkedTransactionID = &id
	}

	if id, err := uuid.Parse(r.URL.Query().Get("account_id")); err == nil {
		opts.LinkedAccountID = &id
	}

	return opts
}

// writeExtractError maps extraction failures onto HTTP statuses: client
// payload problems are 4xx, upstream portal and oracle failures are 5xx
// gateway statuses.
func writeExtractError(w http.ResponseWriter, err error) {
	switch {
	case extract.IsKeyNotFound(err):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case extract.IsMalformed(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case fetch.IsTimeout(err), ai.IsTimeout(err):
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
	case isUpstream(err):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
