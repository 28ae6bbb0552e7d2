package sources

import (
	"context"

	"flos/internal/models"
)

// Source produces candidate records from one raw feed. Candidates missing a
// facility, status type, or start time are dropped by the source. An error
// means the whole feed could not be read and no candidates were produced.
type Source interface {
	Name() string
	Extract(ctx context.Context) ([]models.Candidate, error)
}

// valid reports whether the candidate carries every natural key field
func valid(c models.Candidate) bool {
	return c.FacilityID != "" && c.StatusType != "" && !c.StartTime.IsZero()
}
