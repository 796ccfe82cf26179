package service

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonthsClamp(t *testing.T) {
	tests := []struct {
		name   string
		from   time.Time
		months int
		want   time.Time
	}{
		{"обычный месяц", date(2026, 3, 10), 1, date(2026, 4, 10)},
		{"31 января в невисокосный февраль", date(2026, 1, 31), 1, date(2026, 2, 28)},
		{"31 января в високосный февраль", date(2028, 1, 31), 1, date(2028, 2, 29)},
		{"31 марта в апрель", date(2026, 3, 31), 1, date(2026, 4, 30)},
		{"переход через год", date(2026, 11, 30), 3, date(2027, 2, 28)},
		{"несколько месяцев без прижатия", date(2026, 1, 15), 6, date(2026, 7, 15)},
		{"30 число не прижимается в длинном месяце", date(2026, 4, 30), 1, date(2026, 5, 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AddMonthsClamp(tt.from, tt.months); !got.Equal(tt.want) {
				t.Errorf("AddMonthsClamp(%v, %d) = %v, want %v", tt.from, tt.months, got, tt.want)
			}
		})
	}
}

func TestMonthsElapsed(t *testing.T) {
	from := date(2026, 1, 15)

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"тот же момент", from, 1},
		{"через час", from.Add(time.Hour), 1},
		{"за день до конца первого месяца", date(2026, 2, 14), 1},
		{"ровно месяц", date(2026, 2, 15), 2},
		{"полтора месяца", date(2026, 3, 1), 2},
		{"ровно три месяца", date(2026, 4, 15), 4},
		{"дата раньше выдачи", from.Add(-time.Hour), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthsElapsed(from, tt.now); got != tt.want {
				t.Errorf("MonthsElapsed(%v, %v) = %d, want %d", from, tt.now, got, tt.want)
			}
		})
	}
}

func TestMonthsElapsedEndOfMonthLoan(t *testing.T) {
	// Ссуда от 31 января: расчетные месяцы идут по прижатым датам
	from := date(2026, 1, 31)

	if got := MonthsElapsed(from, date(2026, 2, 27)); got != 1 {
		t.Errorf("до 28 февраля идет первый месяц, got %d", got)
	}
	if got := MonthsElapsed(from, date(2026, 2, 28)); got != 2 {
		t.Errorf("28 февраля начинается второй месяц, got %d", got)
	}
}
