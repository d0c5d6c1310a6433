package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"turia/internal/verification"
	"turia/internal/verification/models"
	"turia/internal/verification/service"
	"turia/pkg/gstin"
	"turia/pkg/platform/httputil"
	"turia/pkg/requestcontext"
)

// Service is the verification orchestrator as seen by the transport.
type Service interface {
	Verify(ctx context.Context, raw string) (*models.Result, error)
	TestConnection(ctx context.Context) service.ConnectionStatus
}

// Handler serves the GST endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{service: svc, logger: logger}
}

// Register mounts the GST routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/gst/verify", h.HandleVerify)
	r.Post("/api/gst/test", h.HandleTestConnection)
}

// HandleVerify verifies the GSTIN in the request body.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Verify(ctx, req.GSTIN)
	if err != nil {
		h.writeVerificationError(ctx, w, req.GSTIN, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, VerifyResponse{Success: true, Data: result})
}

// HandleTestConnection reports upstream configuration and reachability.
func (h *Handler) HandleTestConnection(w http.ResponseWriter, r *http.Request) {
	status := h.service.TestConnection(r.Context())
	httputil.WriteJSON(w, http.StatusOK, ConnectionResponse{
		Success:          status.Configured && status.UpstreamReachable,
		ConnectionStatus: status,
	})
}

func (h *Handler) writeVerificationError(ctx context.Context, w http.ResponseWriter, raw string, err error) {
	verr := verification.Classify(err)
	status, _ := StatusFor(verr.Category)

	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"gstin", gstin.Mask(raw),
		"category", verr.Category,
		"status", status,
	}
	if status >= http.StatusInternalServerError {
		h.logger.WarnContext(ctx, "gstin verification failed", append(attrs, "error", err)...)
	} else {
		h.logger.InfoContext(ctx, "gstin verification rejected", attrs...)
	}

	WriteError(w, verr)
}
