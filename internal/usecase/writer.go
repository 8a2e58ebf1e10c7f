package usecase

import (
	"context"
	"log/slog"

	"VaultXIngest/internal/domain"
)

// store is the update-or-insert surface shared by news and tool repositories.
type store[T any] struct {
	exists func(context.Context, string) (bool, error)
	insert func(context.Context, T) error
	update func(context.Context, T) error
}

// persist writes items one by one. An item that fails is logged and
// counted; the batch continues. Only cancellation stops the loop early.
func persist[T any](ctx context.Context, items []T, s store[T], id, label func(T) string, log *slog.Logger) (domain.WriteStats, error) {
	var stats domain.WriteStats
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		found, err := s.exists(ctx, id(item))
		if err == nil {
			if found {
				err = s.update(ctx, item)
			} else {
				err = s.insert(ctx, item)
			}
		}

		switch {
		case err != nil:
			stats.Failed++
			log.Error("write failed", "id", id(item), "title", label(item), "error", err)
		case found:
			stats.Updated++
		default:
			stats.Inserted++
		}
	}
	return stats, nil
}
