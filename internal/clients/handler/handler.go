package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"turia/internal/clients/models"
	"turia/internal/verification"
	vhandler "turia/internal/verification/handler"
	vmodels "turia/internal/verification/models"
	dErrors "turia/pkg/domain-errors"
	"turia/pkg/platform/httputil"
	"turia/pkg/requestcontext"
)

// Service is the client registry as seen by the transport.
type Service interface {
	Create(ctx context.Context, input models.Client) (models.Client, error)
	Get(ctx context.Context, id uuid.UUID) (models.Client, error)
	List(ctx context.Context, q models.ListQuery) (models.Page, error)
	Update(ctx context.Context, id uuid.UUID, input models.Client) (models.Client, error)
	Delete(ctx context.Context, id uuid.UUID) (models.Client, error)
	ApplyVerification(ctx context.Context, id uuid.UUID) (models.Client, *vmodels.Result, error)
}

// Handler serves /api/clients.
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

// Register mounts the client routes on r. verify is the middleware applied
// to the verification route; pass nil for none.
func (h *Handler) Register(r chi.Router, verify func(http.Handler) http.Handler) {
	r.Route("/api/clients", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
		if verify != nil {
			r.With(verify).Post("/{id}/verify", h.HandleVerify)
		} else {
			r.Post("/{id}/verify", h.HandleVerify)
		}
	})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ClientRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	client, err := h.service.Create(ctx, req.ToModel())
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ClientResponse{Success: true, Message: msgCreated, Data: &client})
}

// HandleList serves ?search=&page=&limit=. Unparseable numbers fall back to defaults.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	result, err := h.service.List(r.Context(), models.ListQuery{
		Search: query.Get("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Success: true, Page: result})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.clientID(w, r)
	if !ok {
		return
	}
	client, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ClientResponse{Success: true, Data: &client})
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.clientID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ClientRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	client, err := h.service.Update(ctx, id, req.ToModel())
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ClientResponse{Success: true, Message: msgUpdated, Data: &client})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.clientID(w, r)
	if !ok {
		return
	}
	client, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ClientResponse{Success: true, Message: msgDeleted, Data: &client})
}

// HandleVerify verifies the client's stored GSTIN and applies the result.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	id, ok := h.clientID(w, r)
	if !ok {
		return
	}
	client, result, err := h.service.ApplyVerification(r.Context(), id)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, VerifyResponse{
		Success:      true,
		Message:      msgVerified,
		Data:         &client,
		Verification: result,
	})
}

func (h *Handler) clientID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid client id"))
		return uuid.Nil, false
	}
	return id, true
}

// writeError routes verification failures through their own category mapping.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var verr *verification.Error
	if errors.As(err, &verr) {
		h.logger.InfoContext(ctx, "client verification failed",
			"request_id", requestcontext.RequestID(ctx),
			"category", verr.Category,
		)
		vhandler.WriteError(w, verr)
		return
	}
	httputil.WriteError(w, err)
}
