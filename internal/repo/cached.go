package repo

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/hrm/internal/cache"
	"github.com/shaiso/hrm/internal/domain"
)

// WorkRequestGetter — чтение work request по ID.
type WorkRequestGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkRequest, error)
}

// CachedWorkRequests — read-through кэш поверх WorkRequestGetter.
//
// Кэшируются только найденные записи: отсутствие строки каждый раз
// проверяется в БД. Ошибки кэша не мешают чтению из БД.
//
// Попадание в кэш не обращается к БД до истечения TTL. Это верно, пока
// work requests неизменяемы и не удаляются; путь удаления должен будет
// сбрасывать ключ (Cache.Delete).
type CachedWorkRequests struct {
	next   WorkRequestGetter
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedWorkRequests создаёт кэширующий декоратор.
func NewCachedWorkRequests(next WorkRequestGetter, c cache.Cache, ttl time.Duration, logger *slog.Logger) *CachedWorkRequests {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedWorkRequests{next: next, cache: c, ttl: ttl, logger: logger}
}

func workRequestKey(id uuid.UUID) string {
	return "workrequest:" + id.String()
}

// GetByID возвращает запись из кэша или из next.
func (c *CachedWorkRequests) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkRequest, error) {
	key := workRequestKey(id)

	var cached domain.WorkRequest
	found, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.logger.Warn("work request cache read failed", "work_request_id", id, "error", err)
	}
	if found {
		return &cached, nil
	}

	wr, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, wr, c.ttl); err != nil {
		c.logger.Warn("work request cache write failed", "work_request_id", id, "error", err)
	}
	return wr, nil
}
