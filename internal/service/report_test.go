package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/MintShards/pawn-repo-sub002/internal/model"
)

// fakeReportStore отдает платежи и билеты из памяти, фильтруя платежи
// по полуинтервалу [start, end) так же, как это делает SQL-запрос
type fakeReportStore struct {
	payments     []model.Payment
	transactions []model.Transaction
}

func (f *fakeReportStore) GetByPeriod(_ context.Context, startDate, endDate time.Time) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range f.payments {
		if !p.PaymentDate.Before(startDate) && p.PaymentDate.Before(endDate) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeReportStore) GetAll(_ context.Context) ([]model.Transaction, error) {
	return f.transactions, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestDailyCashWindow(t *testing.T) {
	reportDay := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	store := &fakeReportStore{
		payments: []model.Payment{
			{PaymentDate: reportDay.Add(9 * time.Hour), CashAmount: 100},
			{PaymentDate: reportDay.Add(23*time.Hour + 59*time.Minute), CashAmount: 50, DiscountAmount: 25},
			// платеж следующего дня не должен попасть в отчет за reportDay
			{PaymentDate: reportDay.AddDate(0, 0, 1).Add(10 * time.Hour), CashAmount: 999},
			// и платеж предыдущего дня тоже
			{PaymentDate: reportDay.Add(-1 * time.Hour), CashAmount: 777},
		},
	}
	svc := NewReportService(store, store, quietLogger())

	stats, err := svc.DailyCash(context.Background(), reportDay.Add(14*time.Hour))
	if err != nil {
		t.Fatalf("DailyCash: %v", err)
	}
	if stats.PaymentsCount != 2 {
		t.Errorf("PaymentsCount = %d, ожидалось 2", stats.PaymentsCount)
	}
	if stats.CashCollected != 150 {
		t.Errorf("CashCollected = %d, ожидалось 150", stats.CashCollected)
	}
	if stats.DiscountsGiven != 25 {
		t.Errorf("DiscountsGiven = %d, ожидалось 25", stats.DiscountsGiven)
	}
}

func TestDailyCashVoidedSeparated(t *testing.T) {
	reportDay := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	store := &fakeReportStore{
		payments: []model.Payment{
			{PaymentDate: reportDay.Add(9 * time.Hour), CashAmount: 200},
			{PaymentDate: reportDay.Add(11 * time.Hour), CashAmount: 300, IsVoided: true},
		},
	}
	svc := NewReportService(store, store, quietLogger())

	stats, err := svc.DailyCash(context.Background(), reportDay)
	if err != nil {
		t.Fatalf("DailyCash: %v", err)
	}
	if stats.CashCollected != 200 {
		t.Errorf("CashCollected = %d, ожидалось 200", stats.CashCollected)
	}
	if stats.VoidedCount != 1 || stats.VoidedAmount != 300 {
		t.Errorf("VoidedCount/VoidedAmount = %d/%d, ожидалось 1/300", stats.VoidedCount, stats.VoidedAmount)
	}
}

func TestLoanBookByStatus(t *testing.T) {
	store := &fakeReportStore{
		transactions: []model.Transaction{
			{Status: model.StatusActive, Principal: 500},
			{Status: model.StatusActive, Principal: 300},
			{Status: model.StatusRedeemed, Principal: 200},
		},
	}
	svc := NewReportService(store, store, quietLogger())

	stats, err := svc.LoanBook(context.Background())
	if err != nil {
		t.Fatalf("LoanBook: %v", err)
	}
	if stats.TotalLoans != 3 || stats.TotalPrincipal != 1000 {
		t.Errorf("итого = %d/%d, ожидалось 3/1000", stats.TotalLoans, stats.TotalPrincipal)
	}
	active := stats.ByStatus[string(model.StatusActive)]
	if active.Count != 2 || active.Principal != 800 {
		t.Errorf("active = %d/%d, ожидалось 2/800", active.Count, active.Principal)
	}
}
