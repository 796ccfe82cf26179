package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/MintShards/pawn-repo-sub002/internal/model"
	"github.com/MintShards/pawn-repo-sub002/internal/service"
)

type CustomerHandler struct {
	customerService    *service.CustomerService
	transactionService *service.TransactionService
	logger             *logrus.Logger
}

func NewCustomerHandler(customerService *service.CustomerService, transactionService *service.TransactionService, logger *logrus.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerService:    customerService,
		transactionService: transactionService,
		logger:             logger,
	}
}

func (h *CustomerHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", h.CreateCustomer).Methods("POST")
	router.HandleFunc("/{phone}", h.GetCustomer).Methods("GET")
	router.HandleFunc("/{phone}", h.UpdateCustomer).Methods("PUT")
	router.HandleFunc("/{phone}/transactions", h.GetCustomerTransactions).Methods("GET")
}

func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Не удалось декодировать запрос создания клиента")
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	customer, err := h.customerService.CreateCustomer(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, customer)
}

func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	phone := mux.Vars(r)["phone"]

	customer, err := h.customerService.GetCustomer(r.Context(), phone)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	phone := mux.Vars(r)["phone"]

	var req model.UpdateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Не удалось декодировать запрос обновления клиента")
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	customer, err := h.customerService.UpdateCustomer(r.Context(), phone, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) GetCustomerTransactions(w http.ResponseWriter, r *http.Request) {
	phone := mux.Vars(r)["phone"]

	transactions, err := h.transactionService.GetCustomerTransactions(r.Context(), phone)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, transactions)
}
