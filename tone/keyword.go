package tone

import (
	"context"
	"strings"
	"time"

	"github.com/clearslate/defender-api/models"
)

// Keyword is the deterministic local fallback classifier. It matches against
// fixed keyword lists and never fails.
type Keyword struct{}

// NewKeyword returns the local fallback classifier.
func NewKeyword() *Keyword { return &Keyword{} }

var hostileKeywords = []string{
	"shut up", "idiot", "stupid", "useless", "pathetic", "liar",
}

var threatKeywords = []string{
	"sue you", "lawsuit", "garnish", "arrest", "jail", "seize", "repossess",
	"or else", "you will regret",
}

var complianceKeywords = []string{
	"guarantee", "guaranteed outcome", "legal advice", "you must pay",
	"immediately pay", "final notice",
}

var warmthKeywords = []string{
	"thank you", "please", "happy to help", "glad", "appreciate", "together",
	"let's", "hope",
}

// Classify scores text against the keyword lists, producing the same shape as
// the remote classifier.
func (k *Keyword) Classify(_ context.Context, text string, _ models.SenderRole) (models.ToneClassification, error) {
	lower := strings.ToLower(text)

	hostility := matchAll(lower, hostileKeywords)
	threats := matchAll(lower, threatKeywords)
	compliance := matchAll(lower, complianceKeywords)
	warm := matchAll(lower, warmthKeywords)

	score := 50 + 10*len(warm) - 15*len(hostility) - 20*len(threats)
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	rec := models.TonePass
	var concerns []string
	switch {
	case len(threats) > 0:
		rec = models.ToneBlock
		concerns = append(concerns, "threatening language detected")
	case len(hostility) > 0 || len(compliance) > 0:
		rec = models.ToneSuggestRewrite
		concerns = append(concerns, "tone or compliance concerns detected")
	}

	return models.ToneClassification{
		WarmthScore:         score,
		HostilityIndicators: hostility,
		ThreateningLanguage: threats,
		ComplianceIssues:    compliance,
		Recommendation:      rec,
		Concerns:            concerns,
		Classifier:          "keyword",
		CreatedAt:           time.Now(),
	}, nil
}

func matchAll(text string, keywords []string) []string {
	var found []string
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			found = append(found, kw)
		}
	}
	return found
}
