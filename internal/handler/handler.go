package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/andrei-d/partybank/internal/exchange"
	"github.com/andrei-d/partybank/internal/middleware"
	"github.com/andrei-d/partybank/internal/models"
	"github.com/andrei-d/partybank/internal/service"
)

type Handler struct {
	svc *service.Service
	fx  *exchange.Table
	log *logrus.Logger
}

func NewHandler(svc *service.Service, fx *exchange.Table, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, fx: fx, log: log}
}

// caller pulls the authenticated user id out of the request context.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}
	return id, ok
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tag       string `json:"tag"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Password  string `json:"password"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.svc.Register(r.Context(), req.Tag, req.Email, req.FirstName, req.LastName, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// CreateAccount handles account creation
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req struct {
		Type         models.AccountType `json:"type"`
		Name         string             `json:"name"`
		Color        string             `json:"color"`
		Currency     string             `json:"currency"`
		CreditAmount decimal.Decimal    `json:"credit_amount"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	account, err := h.svc.CreateAccount(r.Context(), userID, req.Type, req.Name, req.Color, req.Currency, req.CreditAmount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, account)
}

// ListAccounts lists the caller's open accounts
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	accounts, err := h.svc.ListAccounts(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, accounts)
}

// CloseAccount closes an account with zero balance
func (h *Handler) CloseAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	accountID, err := pathID(r, "id")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account id"})
		return
	}
	if err := h.svc.CloseAccount(r.Context(), userID, accountID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetDefaultAccount marks an account as the incoming-transfer default
func (h *Handler) SetDefaultAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	accountID, err := pathID(r, "id")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account id"})
		return
	}
	if err := h.svc.SetDefaultAccount(r.Context(), userID, accountID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// IssueCard issues a card on an account
func (h *Handler) IssueCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	accountID, err := pathID(r, "id")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account id"})
		return
	}
	var req struct {
		Limit decimal.Decimal `json:"limit"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	card, err := h.svc.IssueCard(r.Context(), userID, accountID, req.Limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, card)
}

// ListCards lists the cards issued on an account
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	accountID, err := pathID(r, "id")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account id"})
		return
	}
	cards, err := h.svc.ListCards(r.Context(), userID, accountID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cards)
}

// CreateCardTransaction records a card debit
func (h *Handler) CreateCardTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	cardID, err := pathID(r, "id")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid card id"})
		return
	}
	var req struct {
		Amount   decimal.Decimal `json:"amount"`
		Merchant string          `json:"merchant"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	transaction, err := h.svc.ApplyCardTransaction(r.Context(), userID, cardID, req.Amount, req.Merchant)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, transaction)
}

// SendTransfer sends money to another user by tag
func (h *Handler) SendTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req struct {
		AccountID    int64           `json:"account_id"`
		RecipientTag string          `json:"recipient_tag"`
		Amount       decimal.Decimal `json:"amount"`
		Currency     string          `json:"currency"`
		Note         string          `json:"note"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.svc.Send(r.Context(), userID, req.AccountID, req.RecipientTag, req.Amount, req.Currency, req.Note)
	if err != nil {
		h.writeError(w, err)
		return
	}
	status := http.StatusCreated
	if result.Request != nil {
		status = http.StatusAccepted
	}
	h.writeJSON(w, status, result)
}

// ListTransfers lists settled transfer history
func (h *Handler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	transfers, err := h.svc.ListTransfers(r.Context(), userID, r.URL.Query().Get("counterpart"), page)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, transfers)
}

type respondRequest struct {
	Action    service.RespondAction `json:"action"`
	AccountID int64                 `json:"account_id"`
}

// RespondToRequest accepts or declines a pending transfer request
func (h *Handler) RespondToRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	requestID, err := pathID(r, "id")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request id"})
		return
	}
	var req respondRequest
	if !h.decode(w, r, &req) {
		return
	}
	request, err := h.svc.Respond(r.Context(), userID, requestID, req.Action, req.AccountID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, request)
}

// CreateParty creates a group bill split
func (h *Handler) CreateParty(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req struct {
		AccountID int64                 `json:"account_id"`
		Note      string                `json:"note"`
		Members   []service.MemberShare `json:"members"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	party, err := h.svc.CreateParty(r.Context(), userID, req.AccountID, req.Note, req.Members)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, party)
}

// GetParty returns a party with member statuses and completion
func (h *Handler) GetParty(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	partyID, err := pathID(r, "id")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid party id"})
		return
	}
	party, err := h.svc.GetParty(r.Context(), userID, partyID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"party":    party,
		"complete": party.Complete(),
	})
}

// RespondToParty accepts or declines the caller's share of a party
func (h *Handler) RespondToParty(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	partyID, err := pathID(r, "id")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid party id"})
		return
	}
	var req respondRequest
	if !h.decode(w, r, &req) {
		return
	}
	request, err := h.svc.RespondToParty(r.Context(), userID, partyID, req.Action, req.AccountID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, request)
}

// RecentActivity returns the unified activity feed
func (h *Handler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	items, err := h.svc.RecentActivity(r.Context(), userID, q.Get("counterpart"), q.Get("view"), page)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}

// ExchangeRates exposes the current rate table
func (h *Handler) ExchangeRates(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.fx.Pairs())
}
