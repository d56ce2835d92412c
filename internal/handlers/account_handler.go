package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coinkeeper/backend/internal/middleware"
	"github.com/coinkeeper/backend/internal/services"
)

type AccountHandler struct {
	ledger    *services.LedgerService
	notifier  services.NotificationSink
	validator *services.ValidationHelper
}

func NewAccountHandler(ledger *services.LedgerService, notifier services.NotificationSink) *AccountHandler {
	return &AccountHandler{
		ledger:    ledger,
		notifier:  notifier,
		validator: services.NewValidationHelper(),
	}
}

// GetInventory returns the caller's balance and counters
// @Summary Get inventory
// @Description Balance, message count and claimed count for the authenticated account
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Account
// @Failure 401 {object} services.ErrorResponse
// @Router /accounts/inventory [get]
func (h *AccountHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("userID").(string)
	if !ok || accountID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	account, err := h.ledger.Read(r.Context(), accountID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	services.SendJSON(w, http.StatusOK, account)
}

// CreditAccount credits an arbitrary amount to an account
// @Summary Credit account
// @Description Reviewer-only balance grant; the account holder is notified
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account id"
// @Param request body object{amount=int64} true "Credit amount"
// @Success 200 {object} models.Account
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Router /accounts/{accountId}/credit [post]
func (h *AccountHandler) CreditAccount(w http.ResponseWriter, r *http.Request) {
	if !middleware.IsReviewer(r) {
		services.SendErrorResponse(w, "Reviewer role required", http.StatusForbidden, nil)
		return
	}

	accountID := chi.URLParam(r, "accountId")

	var req struct {
		Amount int64 `json:"amount" validate:"required,gt=0"`
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

	account, err := h.ledger.Credit(r.Context(), accountID, req.Amount)
	if err != nil {
		log.Printf("[ACCOUNTS] Credit of %d to %s failed: %v", req.Amount, accountID, err)
		writeWorkflowError(w, err)
		return
	}

	if h.notifier != nil {
		h.notifier.Enqueue(services.Notification{
			AccountID: accountID,
			Kind:      "credit",
			Amount:    req.Amount,
			Message:   fmt.Sprintf("You have been credited with %d coins. New balance: %d.", req.Amount, account.Balance),
		})
	}

	services.SendJSON(w, http.StatusOK, account)
}

// RecordMessage bumps the message counter for an account
// @Summary Record a chat message
// @Description Called by the chat transport on every message it sees
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{accountId=string} true "Message event"
// @Success 202 {object} map[string]string
// @Failure 400 {object} services.ErrorResponse
// @Router /events/message [post]
func (h *AccountHandler) RecordMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID string `json:"accountId" validate:"required"`
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

	if err := h.ledger.IncrementMessages(r.Context(), req.AccountID, 1); err != nil {
		writeWorkflowError(w, err)
		return
	}

	services.SendJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}
