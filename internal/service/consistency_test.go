package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MintShards/pawn-repo-sub002/internal/model"
)

// fakeCounterStore хранит клиентов, билеты и платежи в памяти и
// записывает вызовы UpdateCounters и ListPhones для проверок
type fakeCounterStore struct {
	customers    map[string]*model.Customer
	phones       []string
	transactions map[string][]model.Transaction
	payments     map[uuid.UUID][]model.Payment
	failPhones   map[string]bool

	lastListLimit int
	updatedPhones []string
	updatedValues []model.Customer
	audited       []model.AuditAction
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{
		customers:    make(map[string]*model.Customer),
		transactions: make(map[string][]model.Transaction),
		payments:     make(map[uuid.UUID][]model.Payment),
		failPhones:   make(map[string]bool),
	}
}

func (f *fakeCounterStore) GetByPhone(_ context.Context, phone string) (*model.Customer, error) {
	if f.failPhones[phone] {
		return nil, fmt.Errorf("обрыв соединения")
	}
	c, ok := f.customers[phone]
	if !ok {
		return nil, fmt.Errorf("клиент %s не найден", phone)
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCounterStore) ListPhones(_ context.Context, limit int) ([]string, error) {
	f.lastListLimit = limit
	if limit > 0 && limit < len(f.phones) {
		return f.phones[:limit], nil
	}
	return f.phones, nil
}

func (f *fakeCounterStore) UpdateCounters(_ context.Context, phone string, activeLoans int, totalActiveLoanValue int64, totalTransactions int, totalPaid int64, _ *uuid.UUID, _ *time.Time) error {
	f.updatedPhones = append(f.updatedPhones, phone)
	f.updatedValues = append(f.updatedValues, model.Customer{
		ActiveLoans:          activeLoans,
		TotalActiveLoanValue: totalActiveLoanValue,
		TotalTransactions:    totalTransactions,
		TotalPaid:            totalPaid,
	})
	return nil
}

func (f *fakeCounterStore) GetByCustomerPhone(_ context.Context, phone string) ([]model.Transaction, error) {
	return f.transactions[phone], nil
}

func (f *fakeCounterStore) GetCountedByTransaction(_ context.Context, transactionID uuid.UUID) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range f.payments[transactionID] {
		if p.Counted() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCounterStore) Create(_ context.Context, entry *model.AuditEntry) error {
	f.audited = append(f.audited, entry.Action)
	return nil
}

func (f *fakeCounterStore) addCustomer(phone string, c model.Customer) {
	c.ID = uuid.New()
	c.Phone = phone
	f.customers[phone] = &c
	f.phones = append(f.phones, phone)
}

func newConsistencyService(store *fakeCounterStore) *ConsistencyService {
	return NewConsistencyService(store, store, store, store, quietLogger())
}

func TestCompareCounters(t *testing.T) {
	tests := []struct {
		name           string
		stored         model.Customer
		actual         model.Customer
		wantMismatches []string
	}{
		{
			name:   "счетчики совпадают",
			stored: model.Customer{ActiveLoans: 2, TotalActiveLoanValue: 700, TotalTransactions: 3, TotalPaid: 150},
			actual: model.Customer{ActiveLoans: 2, TotalActiveLoanValue: 700, TotalTransactions: 3, TotalPaid: 150},
		},
		{
			name:           "расходится один счетчик",
			stored:         model.Customer{ActiveLoans: 3, TotalActiveLoanValue: 700, TotalTransactions: 3, TotalPaid: 150},
			actual:         model.Customer{ActiveLoans: 2, TotalActiveLoanValue: 700, TotalTransactions: 3, TotalPaid: 150},
			wantMismatches: []string{"active_loans"},
		},
		{
			name:           "расходятся все счетчики",
			stored:         model.Customer{ActiveLoans: 1, TotalActiveLoanValue: 100, TotalTransactions: 1, TotalPaid: 10},
			actual:         model.Customer{ActiveLoans: 2, TotalActiveLoanValue: 900, TotalTransactions: 4, TotalPaid: 320},
			wantMismatches: []string{"active_loans", "total_active_loan_value", "total_transactions", "total_paid"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mismatches := compareCounters(&tt.stored, &tt.actual)
			if len(mismatches) != len(tt.wantMismatches) {
				t.Fatalf("получено %d расхождений, ожидалось %d: %+v", len(mismatches), len(tt.wantMismatches), mismatches)
			}
			for i, m := range mismatches {
				if m.Field != tt.wantMismatches[i] {
					t.Errorf("расхождение %d: поле %s, ожидалось %s", i, m.Field, tt.wantMismatches[i])
				}
				if m.Cached == m.Computed {
					t.Errorf("поле %s: cached == computed (%d), расхождение фиктивное", m.Field, m.Cached)
				}
			}
		})
	}
}

func TestValidateRecomputesFromRecords(t *testing.T) {
	store := newFakeCounterStore()
	phone := "5551234567"
	// Сохраненные счетчики отстали: лишний активный залог и недоучтенный платеж
	store.addCustomer(phone, model.Customer{
		ActiveLoans:          2,
		TotalActiveLoanValue: 800,
		TotalTransactions:    2,
		TotalPaid:            50,
	})

	activeTx := model.Transaction{ID: uuid.New(), Status: model.StatusOverdue, Principal: 500}
	redeemedTx := model.Transaction{ID: uuid.New(), Status: model.StatusRedeemed, Principal: 300}
	store.transactions[phone] = []model.Transaction{activeTx, redeemedTx}
	store.payments[redeemedTx.ID] = []model.Payment{
		{Amount: 100},
		// отмененный платеж не входит в total_paid
		{Amount: 40, IsVoided: true},
	}

	svc := newConsistencyService(store)
	report, err := svc.Validate(context.Background(), phone, false, uuid.New())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if report.IsConsistent {
		t.Fatal("расхождения не обнаружены")
	}

	want := map[string]int64{
		"active_loans":            1,
		"total_active_loan_value": 500,
		"total_paid":              100,
	}
	if len(report.Mismatches) != len(want) {
		t.Fatalf("получено %d расхождений, ожидалось %d: %+v", len(report.Mismatches), len(want), report.Mismatches)
	}
	for _, m := range report.Mismatches {
		computed, ok := want[m.Field]
		if !ok {
			t.Errorf("неожиданное расхождение по полю %s", m.Field)
			continue
		}
		if m.Computed != computed {
			t.Errorf("поле %s: пересчитано %d, ожидалось %d", m.Field, m.Computed, computed)
		}
	}
	if len(store.updatedPhones) != 0 {
		t.Errorf("без fix счетчики исправляться не должны, исправлено: %v", store.updatedPhones)
	}
}

func TestValidateFixOverwritesCounters(t *testing.T) {
	store := newFakeCounterStore()
	phone := "5551234567"
	store.addCustomer(phone, model.Customer{ActiveLoans: 5, TotalActiveLoanValue: 9999})

	tx := model.Transaction{ID: uuid.New(), Status: model.StatusActive, Principal: 400}
	store.transactions[phone] = []model.Transaction{tx}
	store.payments[tx.ID] = []model.Payment{{Amount: 75}}

	svc := newConsistencyService(store)
	report, err := svc.Validate(context.Background(), phone, true, uuid.New())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !report.Fixed {
		t.Fatal("расхождение не исправлено")
	}
	if len(store.updatedPhones) != 1 || store.updatedPhones[0] != phone {
		t.Fatalf("UpdateCounters вызван для %v, ожидался %s", store.updatedPhones, phone)
	}
	got := store.updatedValues[0]
	if got.ActiveLoans != 1 || got.TotalActiveLoanValue != 400 || got.TotalTransactions != 1 || got.TotalPaid != 75 {
		t.Errorf("записаны счетчики %+v, ожидалось 1/400/1/75", got)
	}
	if len(store.audited) != 1 || store.audited[0] != model.AuditCountersFixed {
		t.Errorf("аудит исправления не записан: %v", store.audited)
	}
}

func TestValidateAllContinuesAfterFailure(t *testing.T) {
	store := newFakeCounterStore()
	for _, phone := range []string{"5550000001", "5550000002", "5550000003"} {
		store.addCustomer(phone, model.Customer{})
	}
	store.failPhones["5550000002"] = true

	svc := newConsistencyService(store)
	batch, err := svc.ValidateAll(context.Background(), 0, false, uuid.New())
	if err != nil {
		t.Fatalf("ValidateAll: %v", err)
	}
	if batch.Failed != 1 {
		t.Errorf("Failed = %d, ожидалось 1", batch.Failed)
	}
	if batch.TotalChecked != 2 || batch.Consistent != 2 {
		t.Errorf("TotalChecked/Consistent = %d/%d, ожидалось 2/2", batch.TotalChecked, batch.Consistent)
	}
}

func TestValidateAllLimit(t *testing.T) {
	store := newFakeCounterStore()
	for _, phone := range []string{"5550000001", "5550000002", "5550000003"} {
		store.addCustomer(phone, model.Customer{})
	}

	svc := newConsistencyService(store)
	batch, err := svc.ValidateAll(context.Background(), 2, false, uuid.New())
	if err != nil {
		t.Fatalf("ValidateAll: %v", err)
	}
	if store.lastListLimit != 2 {
		t.Errorf("в ListPhones передан limit %d, ожидалось 2", store.lastListLimit)
	}
	if batch.TotalChecked != 2 {
		t.Errorf("TotalChecked = %d, ожидалось 2", batch.TotalChecked)
	}
}
