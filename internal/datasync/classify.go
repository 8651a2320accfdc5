package datasync

import (
	"errors"

	apperrors "github.com/julianstephens/habitflow/internal/errors"
	"github.com/julianstephens/habitflow/internal/logger"
	"github.com/julianstephens/habitflow/internal/storage"
)

// classify logs a collaborator error and maps it onto the error taxonomy.
// Anything not recognised is a generic remote failure carrying the
// collaborator's message.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	logger.Error("Backend operation failed", "op", op, "error", err)

	switch {
	case errors.Is(err, storage.ErrNotFound):
		return &apperrors.Error{Kind: apperrors.KindNotFound, Op: op, Err: err}
	case errors.Is(err, storage.ErrConflict):
		return apperrors.Wrap(apperrors.KindValidation, op, err)
	}
	return apperrors.Wrap(apperrors.KindRemote, op, err)
}

// classifyEntry is classify for entry inserts, where any uniqueness
// violation means the habit already has an entry on day.
func classifyEntry(op, day, today string, err error) error {
	if errors.Is(err, storage.ErrConflict) {
		logger.Debug("Duplicate habit entry rejected", "op", op, "day", day, "error", err)
		return apperrors.DuplicateEntry(op, day, today, err)
	}
	return classify(op, err)
}

func notFound(op, entity, id string) error {
	return apperrors.Newf(apperrors.KindNotFound, op, "%s %s not found", entity, id)
}
