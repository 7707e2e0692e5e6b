package assessor

import (
	"context"

	"github.com/phishsentry/phishsentry/internal/model"
)

// Assessor turns a ScanResult into a ReputationScore. Implementations do not
// perform network I/O against the scanned site; an optional reputation
// provider may be consulted.
type Assessor interface {
	Score(ctx context.Context, sr *model.ScanResult) *model.ReputationScore
}

var _ Assessor = (*ReputationEngine)(nil)
