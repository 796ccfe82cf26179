package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/MintShards/pawn-repo-sub002/internal/model"
)

// transactionLister и paymentPeriodReader — минимальные срезы репозиториев,
// нужные отчетам
type transactionLister interface {
	GetAll(ctx context.Context) ([]model.Transaction, error)
}

type paymentPeriodReader interface {
	GetByPeriod(ctx context.Context, startDate, endDate time.Time) ([]model.Payment, error)
}

type ReportService struct {
	transactionRepo transactionLister
	paymentRepo     paymentPeriodReader
	logger          *logrus.Logger
}

func NewReportService(transactionRepo transactionLister, paymentRepo paymentPeriodReader, logger *logrus.Logger) *ReportService {
	return &ReportService{
		transactionRepo: transactionRepo,
		paymentRepo:     paymentRepo,
		logger:          logger,
	}
}

// DailyCash строит кассовый отчет за день: принятые наличные, скидки
// и отмененные платежи
func (s *ReportService) DailyCash(ctx context.Context, date time.Time) (*model.DailyCashStats, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	payments, err := s.paymentRepo.GetByPeriod(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения платежей за период: %w", err)
	}

	stats := &model.DailyCashStats{Date: start.Format("2006-01-02")}
	for i := range payments {
		p := &payments[i]
		if !p.Counted() {
			stats.VoidedCount++
			stats.VoidedAmount += p.CashAmount
			continue
		}
		stats.PaymentsCount++
		stats.CashCollected += p.CashAmount
		stats.DiscountsGiven += p.DiscountAmount
	}

	return stats, nil
}

// LoanBook строит сводку кредитного портфеля по статусам
func (s *ReportService) LoanBook(ctx context.Context) (*model.LoanBookStats, error) {
	transactions, err := s.transactionRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения билетов: %w", err)
	}

	stats := &model.LoanBookStats{
		ByStatus: make(map[string]model.LoanStatusStats),
	}
	for i := range transactions {
		tx := &transactions[i]
		st := stats.ByStatus[string(tx.Status)]
		st.Count++
		st.Principal += tx.Principal
		stats.ByStatus[string(tx.Status)] = st
		stats.TotalLoans++
		stats.TotalPrincipal += tx.Principal
	}

	s.logger.WithFields(logrus.Fields{
		"total_loans":     stats.TotalLoans,
		"total_principal": stats.TotalPrincipal,
	}).Debug("Сформирована сводка портфеля")

	return stats, nil
}
