package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/MintShards/pawn-repo-sub002/internal/service"
)

type ReportHandler struct {
	reportService *service.ReportService
	ratesClient   *service.MetalRatesClient
	logger        *logrus.Logger
}

func NewReportHandler(reportService *service.ReportService, ratesClient *service.MetalRatesClient, logger *logrus.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		ratesClient:   ratesClient,
		logger:        logger,
	}
}

func (h *ReportHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/reports/daily-cash", h.DailyCash).Methods("GET")
	router.HandleFunc("/reports/loan-book", h.LoanBook).Methods("GET")
	router.HandleFunc("/rates/metals", h.MetalRates).Methods("GET")
	router.HandleFunc("/rates/appraisal", h.SuggestAppraisal).Methods("POST")
}

// DailyCash возвращает кассовый отчет за день (?date=YYYY-MM-DD, по умолчанию сегодня)
func (h *ReportHandler) DailyCash(w http.ResponseWriter, r *http.Request) {
	date := time.Now().UTC()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "Неверный формат даты, ожидается YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	stats, err := h.reportService.DailyCash(r.Context(), date)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *ReportHandler) LoanBook(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reportService.LoanBook(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *ReportHandler) MetalRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.ratesClient.GetMetalRates()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, rates)
}

type appraisalRequest struct {
	Metal       string  `json:"metal"`
	WeightGrams float64 `json:"weight_grams"`
}

// SuggestAppraisal рассчитывает рекомендованную сумму ссуды по котировке металла
func (h *ReportHandler) SuggestAppraisal(w http.ResponseWriter, r *http.Request) {
	var req appraisalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	suggestion, err := h.ratesClient.SuggestAppraisal(req.Metal, req.WeightGrams)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, suggestion)
}
