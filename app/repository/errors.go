package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ManuelReschke/SubTrack/app/models"
)

// translate maps gorm's not-found error onto models.ErrNotFound.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
