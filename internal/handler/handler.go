// Package handler содержит HTTP-обработчики API сервиса прогресса питомцев.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/petprogress-system/internal/middleware"
	"github.com/mmeshcher/petprogress-system/internal/model"
	"github.com/mmeshcher/petprogress-system/internal/ratelimit"
	"github.com/mmeshcher/petprogress-system/internal/repository"
	"github.com/mmeshcher/petprogress-system/internal/service"
	"github.com/mmeshcher/petprogress-system/internal/validation"
	"github.com/mmeshcher/petprogress-system/internal/xp"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterPet(ctx context.Context, actorID int64, name, breed string) (*model.Pet, error)
	Grant(ctx context.Context, actorID, petID int64, kind model.ActionKind, walk *model.WalkMetadata, rawMeta json.RawMessage) (*model.GrantResult, error)
	Status(ctx context.Context, actorID, petID int64) (*model.StatusResult, error)
	PreviewWalk(stats model.WalkStats) *service.WalkPreview
	GetAuditByPet(ctx context.Context, actorID, petID int64, limit int) ([]model.AuditEntry, error)
}

// Handler реализует HTTP-обработчики API сервиса прогресса питомцев.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	limiter        *ratelimit.Limiter
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, limiter *ratelimit.Limiter) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		limiter:        limiter,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type dailyLimitResponse struct {
	Error string `json:"error"`
	Scope string `json:"scope"`
	Limit int    `json:"limit"`
}

// writeServiceError транслирует ошибку бизнес-логики в HTTP-ответ.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, op string) {
	var dlErr *xp.DailyLimitError
	switch {
	case errors.Is(err, repository.ErrPetNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	case errors.As(err, &dlErr):
		writeJSON(w, http.StatusTooManyRequests, dailyLimitResponse{
			Error: "daily limit reached",
			Scope: dlErr.Scope,
			Limit: dlErr.Limit,
		})
	default:
		h.logger.Error(op+" error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type registerPetRequest struct {
	Name  string `json:"name"`
	Breed string `json:"breed"`
}

type registerPetResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Breed string `json:"breed,omitempty"`
}

// RegisterPet создаёт профиль питомца для текущего пользователя.
func (h *Handler) RegisterPet(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req registerPetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	pet, err := h.service.RegisterPet(r.Context(), actorID, req.Name, req.Breed)
	if err != nil {
		h.logger.Error("register pet error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, registerPetResponse{
		ID:    pet.ID,
		Name:  pet.Name,
		Breed: pet.Breed,
	})
}

type grantRequest struct {
	PetID    int64           `json:"petId"`
	Action   string          `json:"action"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// Grant проводит начисление опыта за одно действие по уходу за питомцем.
func (h *Handler) Grant(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	kind := model.ActionKind(req.Action)
	if req.PetID == 0 || !validation.IsValidAction(kind) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var walk *model.WalkMetadata
	if kind == model.ActionWalk && len(req.Metadata) > 0 {
		var meta model.WalkMetadata
		if err := json.Unmarshal(req.Metadata, &meta); err != nil || !validation.IsValidWalkMetadata(meta) {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		walk = &meta
	}

	result, err := h.service.Grant(r.Context(), actorID, req.PetID, kind, walk, req.Metadata)
	if err != nil {
		h.writeServiceError(w, err, "grant xp")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func petIDFromURL(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "petID"), 10, 64)
}

// Status возвращает текущий прогресс питомца.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	petID, err := petIDFromURL(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	status, err := h.service.Status(r.Context(), actorID, petID)
	if err != nil {
		h.writeServiceError(w, err, "get status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

type verifyWalkRequest struct {
	WalkStats model.WalkStats `json:"walkStats"`
}

// VerifyWalk выполняет предварительную проверку прогулки без начисления опыта.
func (h *Handler) VerifyWalk(w http.ResponseWriter, r *http.Request) {
	var req verifyWalkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if !validation.IsValidWalkStats(req.WalkStats) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, h.service.PreviewWalk(req.WalkStats))
}

type auditEntryResponse struct {
	Action    string          `json:"action"`
	XPAdded   int             `json:"xpAdded"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Verified  bool            `json:"verified"`
	CreatedAt string          `json:"createdAt"`
}

// GetAudit возвращает последние записи аудита начислений для питомца.
func (h *Handler) GetAudit(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	petID, err := petIDFromURL(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
	}

	entries, err := h.service.GetAuditByPet(r.Context(), actorID, petID, limit)
	if err != nil {
		h.writeServiceError(w, err, "get audit")
		return
	}

	resp := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, auditEntryResponse{
			Action:    string(e.Action),
			XPAdded:   e.XPAdded,
			Metadata:  e.Metadata,
			Verified:  e.Verified,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// Health возвращает состояние сервиса.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
