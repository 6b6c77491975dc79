package application

import (
	"errors"
	"fmt"

	"github.com/example/roombook/internal/persistence"
)

func errServiceNil(name string) error {
	return fmt.Errorf("%s is nil", name)
}

// mapRepoError translates persistence sentinels into application errors.
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	}
	return err
}
