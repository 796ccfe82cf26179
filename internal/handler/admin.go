package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/MintShards/pawn-repo-sub002/internal/apperr"
	"github.com/MintShards/pawn-repo-sub002/internal/model"
	"github.com/MintShards/pawn-repo-sub002/internal/repository"
	"github.com/MintShards/pawn-repo-sub002/internal/service"
)

// AdminHandler обрабатывает административные операции: скидки, отмены,
// сверку счетчиков, управление билетами и учетными записями
type AdminHandler struct {
	paymentService     *service.PaymentService
	extensionService   *service.ExtensionService
	transactionService *service.TransactionService
	consistencyService *service.ConsistencyService
	customerService    *service.CustomerService
	authService        *service.AuthService
	gate               *service.ReversalGate
	auditRepo          *repository.AuditRepository
	logger             *logrus.Logger
}

func NewAdminHandler(
	paymentService *service.PaymentService,
	extensionService *service.ExtensionService,
	transactionService *service.TransactionService,
	consistencyService *service.ConsistencyService,
	customerService *service.CustomerService,
	authService *service.AuthService,
	gate *service.ReversalGate,
	auditRepo *repository.AuditRepository,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		paymentService:     paymentService,
		extensionService:   extensionService,
		transactionService: transactionService,
		consistencyService: consistencyService,
		customerService:    customerService,
		authService:        authService,
		gate:               gate,
		auditRepo:          auditRepo,
		logger:             logger,
	}
}

func (h *AdminHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/discounts/validate", h.ValidateDiscount).Methods("POST")
	router.HandleFunc("/discounts/apply", h.ApplyDiscount).Methods("POST")

	router.HandleFunc("/payments/{paymentId}/reversal-eligibility", h.PaymentReversalEligibility).Methods("GET")
	router.HandleFunc("/payments/{paymentId}/void", h.VoidPayment).Methods("POST")
	router.HandleFunc("/extensions/{extensionId}/reversal-eligibility", h.ExtensionReversalEligibility).Methods("GET")
	router.HandleFunc("/extensions/{extensionId}/cancel", h.CancelExtension).Methods("POST")

	router.HandleFunc("/consistency", h.ValidateAllCounters).Methods("POST")
	router.HandleFunc("/consistency/{phone}", h.ValidateCounters).Methods("POST")

	router.HandleFunc("/transactions/{transactionId}/forfeit", h.ForfeitTransaction).Methods("POST")
	router.HandleFunc("/transactions/{transactionId}/sold", h.MarkTransactionSold).Methods("POST")
	router.HandleFunc("/transactions/{transactionId}/overdue-fee", h.SetOverdueFee).Methods("POST")

	router.HandleFunc("/customers/{phone}/document", h.GetCustomerDocument).Methods("GET")
	router.HandleFunc("/users", h.CreateUser).Methods("POST")
	router.HandleFunc("/audit", h.GetAuditLog).Methods("GET")
}

func (h *AdminHandler) ValidateDiscount(w http.ResponseWriter, r *http.Request) {
	var req model.DiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Не удалось декодировать запрос проверки скидки")
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	adminID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	breakdown, err := h.paymentService.ValidateDiscount(r.Context(), req, adminID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, breakdown)
}

func (h *AdminHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	var req model.DiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Не удалось декодировать запрос применения скидки")
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	adminID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	breakdown, err := h.paymentService.ApplyDiscount(r.Context(), req, adminID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, breakdown)
}

func (h *AdminHandler) PaymentReversalEligibility(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuid.Parse(mux.Vars(r)["paymentId"])
	if err != nil {
		http.Error(w, "Неверный идентификатор платежа", http.StatusBadRequest)
		return
	}

	eligibility, err := h.gate.CheckPayment(r.Context(), paymentID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, eligibility)
}

func (h *AdminHandler) VoidPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuid.Parse(mux.Vars(r)["paymentId"])
	if err != nil {
		http.Error(w, "Неверный идентификатор платежа", http.StatusBadRequest)
		return
	}

	var req model.VoidPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Не удалось декодировать запрос отмены платежа")
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	adminID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.paymentService.VoidPayment(r.Context(), paymentID, req, adminID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "voided"})
}

func (h *AdminHandler) ExtensionReversalEligibility(w http.ResponseWriter, r *http.Request) {
	extensionID, err := uuid.Parse(mux.Vars(r)["extensionId"])
	if err != nil {
		http.Error(w, "Неверный идентификатор продления", http.StatusBadRequest)
		return
	}

	eligibility, err := h.gate.CheckExtension(r.Context(), extensionID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, eligibility)
}

func (h *AdminHandler) CancelExtension(w http.ResponseWriter, r *http.Request) {
	extensionID, err := uuid.Parse(mux.Vars(r)["extensionId"])
	if err != nil {
		http.Error(w, "Неверный идентификатор продления", http.StatusBadRequest)
		return
	}

	var req model.CancelExtensionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Не удалось декодировать запрос отмены продления")
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	adminID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.extensionService.CancelExtension(r.Context(), extensionID, req, adminID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// ValidateCounters сверяет счетчики одного клиента, ?fix=true исправляет расхождения
func (h *AdminHandler) ValidateCounters(w http.ResponseWriter, r *http.Request) {
	phone := mux.Vars(r)["phone"]
	fix := r.URL.Query().Get("fix") == "true"

	adminID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	report, err := h.consistencyService.Validate(r.Context(), phone, fix, adminID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// ValidateAllCounters запускает пакетную сверку счетчиков клиентов.
// Параметр limit ограничивает размер пачки, без него сверяются все
func (h *AdminHandler) ValidateAllCounters(w http.ResponseWriter, r *http.Request) {
	fix := r.URL.Query().Get("fix") == "true"

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, h.logger, apperr.Validation("некорректный параметр limit: %s", raw))
			return
		}
		limit = parsed
	}

	adminID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	report, err := h.consistencyService.ValidateAll(r.Context(), limit, fix, adminID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *AdminHandler) ForfeitTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["transactionId"])
	if err != nil {
		http.Error(w, "Неверный идентификатор билета", http.StatusBadRequest)
		return
	}

	var req model.AdminActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	adminID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.transactionService.Forfeit(r.Context(), id, adminID, req.AdminPIN, req.Reason); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "forfeited"})
}

func (h *AdminHandler) MarkTransactionSold(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["transactionId"])
	if err != nil {
		http.Error(w, "Неверный идентификатор билета", http.StatusBadRequest)
		return
	}

	var req model.AdminActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	adminID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.transactionService.MarkSold(r.Context(), id, adminID, req.AdminPIN, req.Reason); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sold"})
}

func (h *AdminHandler) SetOverdueFee(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["transactionId"])
	if err != nil {
		http.Error(w, "Неверный идентификатор билета", http.StatusBadRequest)
		return
	}

	var req model.SetOverdueFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	adminID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.transactionService.SetOverdueFee(r.Context(), id, req, adminID, req.AdminPIN); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// GetCustomerDocument возвращает расшифрованный номер документа клиента
func (h *AdminHandler) GetCustomerDocument(w http.ResponseWriter, r *http.Request) {
	phone := mux.Vars(r)["phone"]

	adminID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	document, err := h.customerService.GetCustomerDocument(r.Context(), phone, adminID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"document_number": document})
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input model.CreateUserInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.WithError(err).Error("Не удалось декодировать запрос создания пользователя")
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	adminID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.authService.CreateUser(r.Context(), input, adminID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// GetAuditLog возвращает последние записи журнала действий
func (h *AdminHandler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}

	entries, err := h.auditRepo.List(r.Context(), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}
