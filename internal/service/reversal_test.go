package service

import (
	"testing"
	"time"
)

func TestEvaluateReversalEligibility(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		actionAt     time.Time
		now          time.Time
		sameDayCount int
		wantEligible bool
	}{
		{
			name:         "свежее действие без отмен",
			actionAt:     base,
			now:          base.Add(time.Hour),
			sameDayCount: 0,
			wantEligible: true,
		},
		{
			name:         "на границе окна еще можно",
			actionAt:     base,
			now:          base.Add(23*time.Hour + 54*time.Minute),
			sameDayCount: 0,
			wantEligible: true,
		},
		{
			name:         "ровно 24 часа - окно закрыто",
			actionAt:     base,
			now:          base.Add(24 * time.Hour),
			sameDayCount: 0,
			wantEligible: false,
		},
		{
			name:         "за пределами окна",
			actionAt:     base,
			now:          base.Add(24*time.Hour + 6*time.Minute),
			sameDayCount: 0,
			wantEligible: false,
		},
		{
			name:         "две отмены за день - еще можно",
			actionAt:     base,
			now:          base.Add(time.Hour),
			sameDayCount: 2,
			wantEligible: true,
		},
		{
			name:         "суточный лимит исчерпан",
			actionAt:     base,
			now:          base.Add(time.Hour),
			sameDayCount: 3,
			wantEligible: false,
		},
		{
			name:         "лимит превышен",
			actionAt:     base,
			now:          base.Add(time.Hour),
			sameDayCount: 5,
			wantEligible: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateReversalEligibility(tt.actionAt, tt.now, tt.sameDayCount)
			if got.IsEligible != tt.wantEligible {
				t.Errorf("IsEligible = %v, want %v (reason: %s)", got.IsEligible, tt.wantEligible, got.Reason)
			}
			if !got.IsEligible && got.Reason == "" {
				t.Error("отказ должен содержать причину")
			}
			if got.ReversalsUsed != tt.sameDayCount {
				t.Errorf("ReversalsUsed = %d, want %d", got.ReversalsUsed, tt.sameDayCount)
			}
		})
	}
}

func TestStartOfDayUTC(t *testing.T) {
	moment := time.Date(2026, 8, 29, 23, 59, 59, 0, time.UTC)
	want := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	if got := startOfDayUTC(moment); !got.Equal(want) {
		t.Errorf("startOfDayUTC(%v) = %v, want %v", moment, got, want)
	}

	// Момент в другом поясе приводится к суткам UTC
	loc := time.FixedZone("UTC+5", 5*3600)
	late := time.Date(2026, 8, 30, 3, 0, 0, 0, loc) // 2026-08-29 22:00 UTC
	if got := startOfDayUTC(late); !got.Equal(want) {
		t.Errorf("startOfDayUTC(%v) = %v, want %v", late, got, want)
	}
}
