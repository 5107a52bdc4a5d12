package app

import (
	"github.com/google/uuid"

	"github.com/cimillas/event-horizon/internal/domain"
)

func newID() string {
	return uuid.NewString()
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidID
	}
	return nil
}
