package service

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MintShards/pawn-repo-sub002/internal/apperr"
	"github.com/MintShards/pawn-repo-sub002/internal/model"
)

func TestCheckCancellable(t *testing.T) {
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	first := &model.Extension{ID: uuid.New(), CreatedAt: base}
	second := &model.Extension{ID: uuid.New(), CreatedAt: base.Add(time.Hour)}

	tests := []struct {
		name    string
		status  model.TransactionStatus
		ext     *model.Extension
		latest  *model.Extension
		wantErr bool
	}{
		{
			name:   "последнее продление активного билета",
			status: model.StatusExtended,
			ext:    second,
			latest: second,
		},
		{
			name:    "не последнее продление",
			status:  model.StatusExtended,
			ext:     first,
			latest:  second,
			wantErr: true,
		},
		{
			name:    "продлений не осталось",
			status:  model.StatusExtended,
			ext:     first,
			latest:  nil,
			wantErr: true,
		},
		{
			name:    "выкупленный билет не возвращается в работу",
			status:  model.StatusRedeemed,
			ext:     second,
			latest:  second,
			wantErr: true,
		},
		{
			name:    "конфискованный билет",
			status:  model.StatusForfeited,
			ext:     second,
			latest:  second,
			wantErr: true,
		},
		{
			name:    "проданный билет",
			status:  model.StatusSold,
			ext:     second,
			latest:  second,
			wantErr: true,
		},
		{
			name:   "просроченный билет не терминален",
			status: model.StatusOverdue,
			ext:    second,
			latest: second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &model.Transaction{TicketNumber: "PX-260201-0001", Status: tt.status}
			err := checkCancellable(tx, tt.ext, tt.latest)
			if tt.wantErr {
				if err == nil {
					t.Fatal("ожидалась ошибка, получен nil")
				}
				appErr, ok := apperr.As(err)
				if !ok || appErr.Code != apperr.CodeBusinessRule {
					t.Errorf("ожидался код %s, получено %v", apperr.CodeBusinessRule, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("неожиданная ошибка: %v", err)
			}
		})
	}
}
