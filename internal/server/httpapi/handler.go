package httpapi

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dmolchanov/packvault/internal/common"
	"github.com/dmolchanov/packvault/internal/server/models"
)

// Narrow views of the service layer, one per concern, so handlers can be
// tested against stubs.
type UnboxingService interface {
	HandleTransfer(ctx context.Context, actor, from, to string, assetIDs []string, memo string, payload []byte) error
	Resolve(ctx context.Context, actor, correlationID string, randomValue []byte) error
	Retry(ctx context.Context, actor, itemID string, payload []byte) error
	Claim(ctx context.Context, actor, itemID string) error
	GetAllocation(ctx context.Context, itemID string) (*models.AllocationRequest, error)
}

type CatalogService interface {
	CreatePack(ctx context.Context, actor string, pack *models.PackDefinition) (*models.PackDefinition, error)
	GetPack(ctx context.Context, packID int64) (*models.PackDefinition, error)
}

type PoolService interface {
	Insert(ctx context.Context, actor string, packID int64, bundle []string) (*models.AvailabilityEntry, error)
	Generate(ctx context.Context, actor string, packID int64, category string, bundleSize int) (int, error)
}

type StagingService interface {
	Approve(ctx context.Context, actor, itemID, requester string) error
	Settle(ctx context.Context, actor, itemID, producedTemplate string) error
	Withdraw(ctx context.Context, actor, itemID string) error
}

type AdminService interface {
	RemoveAll(ctx context.Context, actor, scope string) error
}

type AuditService interface {
	Export(ctx context.Context, actor string) (string, error)
}

// Handler routes the public API.
type Handler struct {
	unboxing UnboxingService
	catalog  CatalogService
	pool     PoolService
	staging  StagingService
	admin    AdminService
	audit    AuditService
	secret   []byte
}

func NewHandler(unboxing UnboxingService, catalog CatalogService, pool PoolService,
	staging StagingService, admin AdminService, audit AuditService, secretKey []byte) *Handler {
	return &Handler{
		unboxing: unboxing,
		catalog:  catalog,
		pool:     pool,
		staging:  staging,
		admin:    admin,
		audit:    audit,
		secret:   secretKey,
	}
}

// Mux builds the route table.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.health)

	mux.HandleFunc("POST /v1/notifications/transfer", withAuth(h.secret, h.transferNotification))
	mux.HandleFunc("POST /v1/oracle/callback", withAuth(h.secret, h.oracleCallback))

	mux.HandleFunc("POST /v1/packs", withAuth(h.secret, h.createPack))
	mux.HandleFunc("GET /v1/packs/{id}", h.getPack)

	mux.HandleFunc("POST /v1/pool/entries", withAuth(h.secret, h.insertEntry))
	mux.HandleFunc("POST /v1/pool/generate", withAuth(h.secret, h.generateEntries))

	mux.HandleFunc("GET /v1/allocations/{id}", h.getAllocation)
	mux.HandleFunc("POST /v1/allocations/{id}/retry", withAuth(h.secret, h.retryAllocation))
	mux.HandleFunc("POST /v1/allocations/{id}/claim", withAuth(h.secret, h.claimAllocation))

	mux.HandleFunc("POST /v1/staged/{id}/approve", withAuth(h.secret, h.approveStaged))
	mux.HandleFunc("POST /v1/staged/{id}/settle", withAuth(h.secret, h.settleStaged))
	mux.HandleFunc("POST /v1/staged/{id}/withdraw", withAuth(h.secret, h.withdrawStaged))

	mux.HandleFunc("POST /v1/admin/removeall", withAuth(h.secret, h.removeAll))
	mux.HandleFunc("POST /v1/admin/audit/export", withAuth(h.secret, h.exportAudit))

	return mux
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type transferNotificationRequest struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	AssetIDs []string `json:"asset_ids"`
	Memo     string   `json:"memo"`
}

func (h *Handler) transferNotification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, common.ErrMalformedInput)
		return
	}

	var req transferNotificationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, common.ErrMalformedInput)
		return
	}

	actor := AccountFromContext(r.Context())
	// The raw body doubles as the signing payload for the randomness
	// request this notification may open.
	err = h.unboxing.HandleTransfer(r.Context(), actor, req.From, req.To, req.AssetIDs, req.Memo, body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

type oracleCallbackRequest struct {
	CorrelationID string `json:"correlation_id"`
	RandomValue   string `json:"random_value"`
}

func (h *Handler) oracleCallback(w http.ResponseWriter, r *http.Request) {
	var req oracleCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, common.ErrMalformedInput)
		return
	}

	randomValue, err := hex.DecodeString(req.RandomValue)
	if err != nil {
		writeError(w, http.StatusBadRequest, common.ErrMalformedInput)
		return
	}

	actor := AccountFromContext(r.Context())
	if err := h.unboxing.Resolve(r.Context(), actor, req.CorrelationID, randomValue); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

type createPackRequest struct {
	PackID      int64     `json:"pack_id"`
	Collection  string    `json:"collection"`
	UnlockTime  time.Time `json:"unlock_time"`
	TemplateRef string    `json:"template_ref"`
	DisplayData string    `json:"display_data"`
}

func (h *Handler) createPack(w http.ResponseWriter, r *http.Request) {
	var req createPackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, common.ErrMalformedInput)
		return
	}

	actor := AccountFromContext(r.Context())
	pack, err := h.catalog.CreatePack(r.Context(), actor, &models.PackDefinition{
		PackID:      req.PackID,
		Collection:  req.Collection,
		UnlockTime:  req.UnlockTime,
		TemplateRef: req.TemplateRef,
		DisplayData: req.DisplayData,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pack)
}

func (h *Handler) getPack(w http.ResponseWriter, r *http.Request) {
	packID, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, common.ErrMalformedInput)
		return
	}

	pack, err := h.catalog.GetPack(r.Context(), packID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pack)
}

type insertEntryRequest struct {
	PackID int64    `json:"pack_id"`
	Bundle []string `json:"bundle"`
}

func (h *Handler) insertEntry(w http.ResponseWriter, r *http.Request) {
	var req insertEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, common.ErrMalformedInput)
		return
	}

	actor := AccountFromContext(r.Context())
	entry, err := h.pool.Insert(r.Context(), actor, req.PackID, req.Bundle)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

type generateEntriesRequest struct {
	PackID     int64  `json:"pack_id"`
	Category   string `json:"category"`
	BundleSize int    `json:"bundle_size"`
}

func (h *Handler) generateEntries(w http.ResponseWriter, r *http.Request) {
	var req generateEntriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, common.ErrMalformedInput)
		return
	}

	actor := AccountFromContext(r.Context())
	count, err := h.pool.Generate(r.Context(), actor, req.PackID, req.Category, req.BundleSize)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"entries": count})
}

func (h *Handler) getAllocation(w http.ResponseWriter, r *http.Request) {
	alloc, err := h.unboxing.GetAllocation(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alloc)
}

func (h *Handler) retryAllocation(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, common.ErrMalformedInput)
		return
	}

	actor := AccountFromContext(r.Context())
	if err := h.unboxing.Retry(r.Context(), actor, r.PathValue("id"), body); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "requested"})
}

func (h *Handler) claimAllocation(w http.ResponseWriter, r *http.Request) {
	actor := AccountFromContext(r.Context())
	if err := h.unboxing.Claim(r.Context(), actor, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "claimed"})
}

type approveStagedRequest struct {
	Requester string `json:"requester"`
}

func (h *Handler) approveStaged(w http.ResponseWriter, r *http.Request) {
	var req approveStagedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, common.ErrMalformedInput)
		return
	}

	actor := AccountFromContext(r.Context())
	if err := h.staging.Approve(r.Context(), actor, r.PathValue("id"), req.Requester); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

type settleStagedRequest struct {
	ProducedTemplate string `json:"produced_template"`
}

func (h *Handler) settleStaged(w http.ResponseWriter, r *http.Request) {
	var req settleStagedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, common.ErrMalformedInput)
		return
	}

	actor := AccountFromContext(r.Context())
	if err := h.staging.Settle(r.Context(), actor, r.PathValue("id"), req.ProducedTemplate); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}

func (h *Handler) withdrawStaged(w http.ResponseWriter, r *http.Request) {
	actor := AccountFromContext(r.Context())
	if err := h.staging.Withdraw(r.Context(), actor, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "withdrawn"})
}

type removeAllRequest struct {
	Scope string `json:"scope"`
}

func (h *Handler) removeAll(w http.ResponseWriter, r *http.Request) {
	var req removeAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, common.ErrMalformedInput)
		return
	}

	actor := AccountFromContext(r.Context())
	if err := h.admin.RemoveAll(r.Context(), actor, req.Scope); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *Handler) exportAudit(w http.ResponseWriter, r *http.Request) {
	actor := AccountFromContext(r.Context())
	url, err := h.audit.Export(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeServiceError maps service sentinels to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, common.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, common.ErrMalformedInput):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, common.ErrAlreadyExists),
		errors.Is(err, common.ErrAlreadyStaged),
		errors.Is(err, common.ErrInvalidState),
		errors.Is(err, common.ErrNotApproved),
		errors.Is(err, common.ErrPackLocked):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, common.ErrNoPackForTemplate),
		errors.Is(err, common.ErrIneligibleItem),
		errors.Is(err, common.ErrPoolExhausted):
		writeError(w, http.StatusUnprocessableEntity, err)
	default:
		writeError(w, http.StatusInternalServerError, common.ErrInternal)
	}
}
