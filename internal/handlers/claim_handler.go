package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/coinkeeper/backend/internal/middleware"
	"github.com/coinkeeper/backend/internal/models"
	"github.com/coinkeeper/backend/internal/services"
)

type ClaimHandler struct {
	claims    *services.ClaimService
	registry  *services.ClaimRegistry
	validator *services.ValidationHelper
}

func NewClaimHandler(claims *services.ClaimService, registry *services.ClaimRegistry) *ClaimHandler {
	return &ClaimHandler{
		claims:    claims,
		registry:  registry,
		validator: services.NewValidationHelper(),
	}
}

// SubmitClaim records a pending claim for the caller
// @Summary Submit a claim
// @Description Submit a claim for an external item; the declared value is reviewed before any balance change
// @Tags claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{itemRef=string,declaredValue=string} true "Claim submission"
// @Success 201 {object} services.SubmissionResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /claims [post]
func (h *ClaimHandler) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("userID").(string)
	if !ok || accountID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		ItemRef       string `json:"itemRef" validate:"required,max=128"`
		DeclaredValue string `json:"declaredValue" validate:"required,max=20"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := h.claims.Submit(r.Context(), accountID, req.ItemRef, req.DeclaredValue)
	if err != nil {
		log.Printf("[CLAIMS] Submit failed for account %s: %v", accountID, err)
		writeWorkflowError(w, err)
		return
	}

	services.SendJSON(w, http.StatusCreated, result)
}

// ResolveClaim accepts or rejects a pending claim
// @Summary Resolve a claim
// @Description Accept or reject a pending claim; repeated resolutions are an idempotent no-op
// @Tags claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param claimId path int true "Claim id"
// @Param request body object{outcome=string} true "Resolution outcome: accepted or rejected"
// @Success 200 {object} services.ResolutionResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /claims/{claimId}/resolve [post]
func (h *ClaimHandler) ResolveClaim(w http.ResponseWriter, r *http.Request) {
	actorID, _ := r.Context().Value("userID").(string)

	claimID, err := strconv.ParseInt(chi.URLParam(r, "claimId"), 10, 64)
	if err != nil {
		services.SendErrorResponse(w, "Invalid claim id", http.StatusBadRequest, nil)
		return
	}

	var req struct {
		Outcome string `json:"outcome" validate:"required,oneof=accepted rejected"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := h.claims.Resolve(r.Context(), claimID, models.ClaimStatus(req.Outcome), actorID, middleware.IsReviewer(r))
	if err != nil {
		log.Printf("[CLAIMS] Resolve of claim %d failed: %v", claimID, err)
		writeWorkflowError(w, err)
		return
	}

	// A lost race is a success response; double-clicks are expected.
	services.SendJSON(w, http.StatusOK, result)
}

// GetClaim returns a single claim
// @Summary Get claim
// @Tags claims
// @Produce json
// @Security BearerAuth
// @Param claimId path int true "Claim id"
// @Success 200 {object} models.Claim
// @Failure 404 {object} services.ErrorResponse
// @Router /claims/{claimId} [get]
func (h *ClaimHandler) GetClaim(w http.ResponseWriter, r *http.Request) {
	claimID, err := strconv.ParseInt(chi.URLParam(r, "claimId"), 10, 64)
	if err != nil {
		services.SendErrorResponse(w, "Invalid claim id", http.StatusBadRequest, nil)
		return
	}

	claim, err := h.registry.Get(r.Context(), claimID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	services.SendJSON(w, http.StatusOK, claim)
}

// ListClaims lists claims for review
// @Summary List claims
// @Description List claims, optionally filtered by status; reviewer only
// @Tags claims
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, accepted or rejected"
// @Param limit query int false "Max rows, default 100"
// @Success 200 {array} models.Claim
// @Failure 403 {object} services.ErrorResponse
// @Router /claims [get]
func (h *ClaimHandler) ListClaims(w http.ResponseWriter, r *http.Request) {
	if !middleware.IsReviewer(r) {
		services.SendErrorResponse(w, "Reviewer role required", http.StatusForbidden, nil)
		return
	}

	status := models.ClaimStatus(r.URL.Query().Get("status"))
	if status != "" && status != models.ClaimPending && !status.Terminal() {
		services.SendErrorResponse(w, "Invalid status filter", http.StatusBadRequest, nil)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	claims, err := h.registry.List(r.Context(), status, limit)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if claims == nil {
		claims = []models.Claim{}
	}

	services.SendJSON(w, http.StatusOK, claims)
}

// writeWorkflowError maps the workflow error taxonomy onto HTTP statuses.
// Every recoverable kind gets its own user-facing message.
func writeWorkflowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrMalformedValue):
		services.SendErrorResponse(w, "Declared value must be a whole number", http.StatusBadRequest, nil)
	case errors.Is(err, services.ErrInvalidValue):
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, services.ErrInsufficientFunds):
		services.SendErrorResponse(w, "Insufficient balance for this claim", http.StatusUnprocessableEntity, nil)
	case errors.Is(err, services.ErrUnauthorized):
		services.SendErrorResponse(w, "Reviewer role required", http.StatusForbidden, nil)
	case errors.Is(err, services.ErrClaimNotFound):
		services.SendErrorResponse(w, "Claim not found", http.StatusNotFound, nil)
	case errors.Is(err, services.ErrAlreadyFinalized):
		// Reached only outside the resolve path, e.g. a stale direct finalize.
		services.SendErrorResponse(w, "Claim already finalized", http.StatusConflict, nil)
	case errors.Is(err, services.ErrStoreUnavailable):
		services.SendErrorResponse(w, "Service temporarily unavailable", http.StatusServiceUnavailable, nil)
	default:
		services.SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
	}
}
