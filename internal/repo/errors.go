package repo

import (
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

// Classify turns a storage error into the typed error services return.
// entity is used in the client-facing message ("product not found").
func Classify(err error, entity string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, entity+" already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: "+entity)
}

// ParseCursor decodes a client cursor, reporting malformed input as a validation error.
func ParseCursor(raw string) (*pagination.Cursor, error) {
	cursor, err := pagination.ParseCursor(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return cursor, nil
}
