package tone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/clearslate/defender-api/models"
)

// Remote calls the hosted tone classifier over HTTP. Any transport failure,
// timeout or non-2xx response surfaces as ErrClassifierUnavailable so callers
// can degrade instead of failing the operation.
type Remote struct {
	url     string
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

// NewRemote builds a remote classifier client with a bounded timeout.
func NewRemote(url, apiKey string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Remote{
		url:     url,
		apiKey:  apiKey,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

type classifyRequest struct {
	Text string `json:"text"`
	Role string `json:"role"`
}

type classifyResponse struct {
	WarmthScore         int      `json:"warmthScore"`
	HostilityIndicators []string `json:"hostilityIndicators"`
	ThreateningLanguage []string `json:"threateningLanguage"`
	ComplianceIssues    []string `json:"complianceIssues"`
	Recommendation      string   `json:"recommendation"`
	Concerns            []string `json:"concerns"`
}

// Classify submits text to the remote classifier.
func (r *Remote) Classify(ctx context.Context, text string, role models.SenderRole) (models.ToneClassification, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	body, err := json.Marshal(classifyRequest{Text: text, Role: string(role)})
	if err != nil {
		return models.ToneClassification{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return models.ToneClassification{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return models.ToneClassification{}, fmt.Errorf("%w: %v", models.ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.ToneClassification{}, fmt.Errorf("%w: status %d", models.ErrClassifierUnavailable, resp.StatusCode)
	}

	var out classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.ToneClassification{}, fmt.Errorf("%w: decode: %v", models.ErrClassifierUnavailable, err)
	}

	return models.ToneClassification{
		WarmthScore:         out.WarmthScore,
		HostilityIndicators: out.HostilityIndicators,
		ThreateningLanguage: out.ThreateningLanguage,
		ComplianceIssues:    out.ComplianceIssues,
		Recommendation:      models.ToneRecommendation(out.Recommendation),
		Concerns:            out.Concerns,
		Classifier:          "remote",
		CreatedAt:           time.Now(),
	}, nil
}
