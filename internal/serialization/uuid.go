package serialization

import (
	"github.com/google/uuid"

	"github.com/rishav/algo-engine/internal/apperrors"
)

func parseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, apperrors.Wrap(apperrors.KindSerialization, "invalid uuid "+s, err)
	}
	return id, nil
}
