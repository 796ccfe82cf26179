package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/MintShards/pawn-repo-sub002/internal/model"
)

const balanceCacheTTL = 5 * time.Minute

// BalanceCache - сквозной кэш рассчитанных балансов в Redis.
// Кэш необязателен: при nil-клиенте или недоступном Redis все
// операции тихо деградируют до пересчета из базы.
type BalanceCache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewBalanceCache(client *redis.Client, logger *logrus.Logger) *BalanceCache {
	return &BalanceCache{client: client, logger: logger}
}

func balanceKey(transactionID uuid.UUID) string {
	return fmt.Sprintf("balance:%s", transactionID)
}

func (c *BalanceCache) Get(ctx context.Context, transactionID uuid.UUID) (*model.BalanceResponse, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, balanceKey(transactionID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Warn("Ошибка чтения баланса из Redis")
		}
		return nil, false
	}

	var resp model.BalanceResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		c.logger.WithError(err).Warn("Поврежденная запись баланса в кэше")
		return nil, false
	}

	return &resp, true
}

func (c *BalanceCache) Set(ctx context.Context, resp *model.BalanceResponse) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.WithError(err).Warn("Не удалось сериализовать баланс для кэша")
		return
	}

	if err := c.client.Set(ctx, balanceKey(resp.TransactionID), data, balanceCacheTTL).Err(); err != nil {
		c.logger.WithError(err).Warn("Ошибка записи баланса в Redis")
	}
}

// Invalidate удаляет кэшированный баланс. Вызывается после любого
// платежа, продления, отмены или изменения штрафа.
func (c *BalanceCache) Invalidate(ctx context.Context, transactionID uuid.UUID) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Del(ctx, balanceKey(transactionID)).Err(); err != nil {
		c.logger.WithError(err).Warn("Ошибка инвалидации кэша баланса")
	}
}
