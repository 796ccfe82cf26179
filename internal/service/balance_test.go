package service

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MintShards/pawn-repo-sub002/internal/model"
)

func testTransaction(principal, monthlyInterest int64) *model.Transaction {
	return &model.Transaction{
		ID:              uuid.New(),
		Principal:       principal,
		MonthlyInterest: monthlyInterest,
		PawnDate:        time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		Status:          model.StatusActive,
	}
}

func TestComputeBalances(t *testing.T) {
	pawnDate := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		tx       *model.Transaction
		payments []model.Payment
		now      time.Time
		want     model.Balances
	}{
		{
			name: "новый билет без платежей - минимум месяц процентов",
			tx:   testTransaction(1000, 100),
			now:  pawnDate.Add(time.Hour),
			want: model.Balances{Principal: 1000, Interest: 100},
		},
		{
			name: "неполный четвертый месяц считается полным",
			tx:   testTransaction(1000, 100),
			now:  pawnDate.AddDate(0, 3, 1),
			want: model.Balances{Principal: 1000, Interest: 400},
		},
		{
			name: "платеж уменьшает корзины",
			tx:   testTransaction(1000, 100),
			payments: []model.Payment{
				{InterestPortion: 100, PrincipalPortion: 200},
			},
			now:  pawnDate.Add(time.Hour),
			want: model.Balances{Principal: 800, Interest: 0},
		},
		{
			name: "отмененный платеж не учитывается",
			tx:   testTransaction(1000, 100),
			payments: []model.Payment{
				{InterestPortion: 100, PrincipalPortion: 200, IsVoided: true},
			},
			now:  pawnDate.Add(time.Hour),
			want: model.Balances{Principal: 1000, Interest: 100},
		},
		{
			name: "отрицательная доля учитывается как ноль",
			tx:   testTransaction(1000, 100),
			payments: []model.Payment{
				{InterestPortion: -50, PrincipalPortion: 200},
			},
			now:  pawnDate.Add(time.Hour),
			want: model.Balances{Principal: 800, Interest: 100},
		},
		{
			name: "переплата корзины прижимается к нулю",
			tx:   testTransaction(1000, 100),
			payments: []model.Payment{
				{InterestPortion: 500, PrincipalPortion: 0},
			},
			now:  pawnDate.Add(time.Hour),
			want: model.Balances{Principal: 1000, Interest: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeBalances(tt.tx, tt.payments, tt.now, nil)
			if got != tt.want {
				t.Errorf("ComputeBalances() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComputeBalancesVoidEquivalence(t *testing.T) {
	// Баланс с отмененным платежом должен совпадать с балансом,
	// в котором этого платежа никогда не было
	tx := testTransaction(1000, 100)
	now := tx.PawnDate.AddDate(0, 2, 0)

	kept := []model.Payment{
		{InterestPortion: 100, PrincipalPortion: 100},
	}
	withVoided := append([]model.Payment{
		{InterestPortion: 50, PrincipalPortion: 300, IsVoided: true},
	}, kept...)

	if got, want := ComputeBalances(tx, withVoided, now, nil), ComputeBalances(tx, kept, now, nil); got != want {
		t.Errorf("баланс с отмененным платежом %+v, без него %+v", got, want)
	}
}

func TestAllocateWaterfall(t *testing.T) {
	tests := []struct {
		name      string
		amount    int64
		balances  model.Balances
		wantAlloc model.Allocation
		wantAfter model.Balances
	}{
		{
			name:      "частичный платеж: штраф, затем проценты",
			amount:    120,
			balances:  model.Balances{OverdueFee: 50, ExtensionFees: 0, Interest: 100, Principal: 400},
			wantAlloc: model.Allocation{OverduePortion: 50, ExtensionPortion: 0, InterestPortion: 70, PrincipalPortion: 0},
			wantAfter: model.Balances{OverdueFee: 0, ExtensionFees: 0, Interest: 30, Principal: 400},
		},
		{
			name:      "полное погашение",
			amount:    550,
			balances:  model.Balances{OverdueFee: 50, Interest: 100, Principal: 400},
			wantAlloc: model.Allocation{OverduePortion: 50, InterestPortion: 100, PrincipalPortion: 400},
			wantAfter: model.Balances{},
		},
		{
			name:      "сборы за продления раньше процентов",
			amount:    80,
			balances:  model.Balances{ExtensionFees: 60, Interest: 100, Principal: 400},
			wantAlloc: model.Allocation{ExtensionPortion: 60, InterestPortion: 20},
			wantAfter: model.Balances{Interest: 80, Principal: 400},
		},
		{
			name:      "платеж в один доллар",
			amount:    1,
			balances:  model.Balances{Interest: 100, Principal: 400},
			wantAlloc: model.Allocation{InterestPortion: 1},
			wantAfter: model.Balances{Interest: 99, Principal: 400},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alloc, after := AllocateWaterfall(tt.amount, tt.balances)
			if alloc != tt.wantAlloc {
				t.Errorf("разбивка = %+v, want %+v", alloc, tt.wantAlloc)
			}
			if after != tt.wantAfter {
				t.Errorf("остатки = %+v, want %+v", after, tt.wantAfter)
			}
			// Закон сохранения: сумма долей равна сумме платежа
			if alloc.Total() != tt.amount {
				t.Errorf("сумма долей %d не равна платежу %d", alloc.Total(), tt.amount)
			}
			if tt.balances.Total()-alloc.Total() != after.Total() {
				t.Errorf("остаток %d не согласован с платежом", after.Total())
			}
		})
	}
}

func TestComputeDiscount(t *testing.T) {
	balances := model.Balances{Interest: 100, Principal: 450}

	tests := []struct {
		name      string
		cash      int64
		discount  int64
		balances  model.Balances
		wantValid bool
		check     func(t *testing.T, b model.DiscountBreakdown)
	}{
		{
			name:      "скидка при полном выкупе",
			cash:      400,
			discount:  150,
			balances:  balances,
			wantValid: true,
			check: func(t *testing.T, b model.DiscountBreakdown) {
				if b.DiscountOnInterest != 100 {
					t.Errorf("скидка на проценты = %d, want 100", b.DiscountOnInterest)
				}
				if b.DiscountOnPrincipal != 50 {
					t.Errorf("скидка на долг = %d, want 50", b.DiscountOnPrincipal)
				}
				if b.EffectivePayment != 550 {
					t.Errorf("эффективный платеж = %d, want 550", b.EffectivePayment)
				}
				if b.NewBalance != 0 {
					t.Errorf("остаток = %d, want 0", b.NewBalance)
				}
				if !b.IsFinalPayment {
					t.Error("ожидался признак финального платежа")
				}
			},
		},
		{
			name:      "скидка без полного выкупа отклоняется",
			cash:      100,
			discount:  100,
			balances:  balances,
			wantValid: false,
		},
		{
			name:      "скидка больше остатка отклоняется",
			cash:      0,
			discount:  600,
			balances:  balances,
			wantValid: false,
		},
		{
			name:      "нулевая скидка отклоняется",
			cash:      550,
			discount:  0,
			balances:  balances,
			wantValid: false,
		},
		{
			name:      "излишек наличных не зачитывается сверх остатка",
			cash:      500,
			discount:  150,
			balances:  model.Balances{Interest: 150, Principal: 400},
			wantValid: true,
			check: func(t *testing.T, b model.DiscountBreakdown) {
				if b.EffectivePayment != 550 {
					t.Errorf("эффективный платеж = %d, want 550", b.EffectivePayment)
				}
				if b.NewBalance != 0 {
					t.Errorf("остаток = %d, want 0", b.NewBalance)
				}
			},
		},
		{
			name:      "скидка на весь остаток без наличных",
			cash:      0,
			discount:  550,
			balances:  balances,
			wantValid: true,
			check: func(t *testing.T, b model.DiscountBreakdown) {
				if b.DiscountOnInterest != 100 || b.DiscountOnPrincipal != 450 {
					t.Errorf("распределение скидки = %d/%d, want 100/450", b.DiscountOnInterest, b.DiscountOnPrincipal)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDiscount(tt.cash, tt.discount, tt.balances)
			if got.IsValid != tt.wantValid {
				t.Errorf("IsValid = %v, want %v (reason: %s)", got.IsValid, tt.wantValid, got.Reason)
			}
			if !got.IsValid && got.Reason == "" {
				t.Error("невалидная скидка должна содержать причину")
			}
			if tt.check != nil && got.IsValid {
				tt.check(t, got)
			}
		})
	}
}

// Части финального платежа со скидкой обязаны сходиться с его суммой,
// иначе инкрементальные дельты счетчиков клиента разъедутся при отмене
func TestDiscountPaymentConservation(t *testing.T) {
	balances := model.Balances{Interest: 150, Principal: 400}

	breakdown := ComputeDiscount(500, 150, balances)
	if !breakdown.IsValid {
		t.Fatalf("скидка отклонена: %s", breakdown.Reason)
	}

	alloc, after := AllocateWaterfall(breakdown.EffectivePayment, balances)
	if alloc.Total() != breakdown.EffectivePayment {
		t.Errorf("сумма частей %d не равна платежу %d", alloc.Total(), breakdown.EffectivePayment)
	}
	if after.Total() != 0 {
		t.Errorf("после финального платежа остаток %d, want 0", after.Total())
	}
}
