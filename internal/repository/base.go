package repository

import (
	"context"
	"errors"

	"messenger/internal/models"
	"messenger/internal/observability"
)

// wrapError passes AppErrors raised inside a transaction through and turns
// driver errors into internal errors.
func wrapError(ctx context.Context, log *observability.RepoLogger, err error, operation string) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	log.LogError(ctx, err, operation)
	return models.NewInternalError(err)
}
