package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/MintShards/pawn-repo-sub002/internal/model"
	"github.com/MintShards/pawn-repo-sub002/internal/service"
)

type TransactionHandler struct {
	transactionService *service.TransactionService
	balanceService     *service.BalanceService
	paymentService     *service.PaymentService
	extensionService   *service.ExtensionService
	logger             *logrus.Logger
}

func NewTransactionHandler(
	transactionService *service.TransactionService,
	balanceService *service.BalanceService,
	paymentService *service.PaymentService,
	extensionService *service.ExtensionService,
	logger *logrus.Logger,
) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		balanceService:     balanceService,
		paymentService:     paymentService,
		extensionService:   extensionService,
		logger:             logger,
	}
}

func (h *TransactionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", h.CreateTransaction).Methods("POST")
	router.HandleFunc("/{transactionId}", h.GetTransaction).Methods("GET")
	router.HandleFunc("/{transactionId}/balance", h.GetBalance).Methods("GET")
	router.HandleFunc("/{transactionId}/payments", h.GetPayments).Methods("GET")
	router.HandleFunc("/{transactionId}/extensions", h.GetExtensions).Methods("GET")
}

// parseTransactionID извлекает идентификатор билета из пути запроса
func parseTransactionID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)["transactionId"])
}

func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Не удалось декодировать запрос выдачи ссуды")
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	tx, err := h.transactionService.CreateTransaction(r.Context(), req, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, tx)
}

func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseTransactionID(r)
	if err != nil {
		http.Error(w, "Неверный идентификатор билета", http.StatusBadRequest)
		return
	}

	tx, err := h.transactionService.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, tx)
}

func (h *TransactionHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, err := parseTransactionID(r)
	if err != nil {
		http.Error(w, "Неверный идентификатор билета", http.StatusBadRequest)
		return
	}

	balance, err := h.balanceService.CalculateCurrentBalance(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, balance)
}

func (h *TransactionHandler) GetPayments(w http.ResponseWriter, r *http.Request) {
	id, err := parseTransactionID(r)
	if err != nil {
		http.Error(w, "Неверный идентификатор билета", http.StatusBadRequest)
		return
	}

	payments, err := h.paymentService.GetPaymentHistory(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, payments)
}

func (h *TransactionHandler) GetExtensions(w http.ResponseWriter, r *http.Request) {
	id, err := parseTransactionID(r)
	if err != nil {
		http.Error(w, "Неверный идентификатор билета", http.StatusBadRequest)
		return
	}

	extensions, err := h.extensionService.GetExtensionHistory(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, extensions)
}
