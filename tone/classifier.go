// Package tone adapts the external tone compliance classifier. The remote
// classifier is consumed as a black box with a bounded timeout; a local
// keyword fallback produces the same shape when the remote is unavailable.
package tone

import (
	"context"

	"github.com/clearslate/defender-api/models"
)

// Classifier assesses a piece of text for warmth, hostility and compliance
// risk. Implementations must be safe for concurrent use.
type Classifier interface {
	Classify(ctx context.Context, text string, role models.SenderRole) (models.ToneClassification, error)
}
