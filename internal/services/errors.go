package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "pennywise/internal/errors"
)

// classifyWriteError maps constraint violations reported by the driver to
// the given application errors. Anything else becomes an internal error.
func classifyWriteError(err error, duplicate, foreignKey *apperrors.AppError) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey) && duplicate != nil:
		return apperrors.Wrap(duplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated) && foreignKey != nil:
		return apperrors.Wrap(foreignKey, err)
	default:
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}

// notFoundOr maps gorm.ErrRecordNotFound to notFound.
func notFoundOr(err error, notFound *apperrors.AppError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
