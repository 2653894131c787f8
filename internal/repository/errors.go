package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrConflict         = errors.New("record conflicts with an existing one")
	ErrInvalidReference = errors.New("referenced record does not exist")
)

// translate maps driver and gorm errors onto the repository sentinels. The
// connection must be opened with TranslateError so that constraint
// violations arrive as gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidReference):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	return err
}
