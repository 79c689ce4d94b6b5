package ports

import (
	"context"

	"locline/internal/domain"
)

type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// CacheRepository caches translations per source payload and model.
type CacheRepository interface {
	Get(ctx context.Context, sourceText, model string) (translation string, hit bool, err error)
	Put(ctx context.Context, sourceText, model, translation string) error
}

type RunRepository interface {
	Create(ctx context.Context, r *domain.Run) error
	UpdateProgress(ctx context.Context, id string, done, total int, status string) error
	Get(ctx context.Context, id string) (*domain.Run, error)
	List(ctx context.Context, limit int) ([]*domain.Run, error)
}
