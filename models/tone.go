package models

import "time"

// ToneRecommendation is the classifier's verdict on a piece of text.
type ToneRecommendation string

// Recommendations
const (
	TonePass           ToneRecommendation = "pass"
	ToneSuggestRewrite ToneRecommendation = "suggest_rewrite"
	ToneBlock          ToneRecommendation = "block"
)

// ToneClassification holds a stored classifier result for one message. The
// shape mirrors the external classifier contract; the local keyword fallback
// produces the same shape.
type ToneClassification struct {
	ID                  string             `json:"_id" bson:"_id"`
	MessageID           string             `json:"messageID,omitempty" bson:"messageID,omitempty"`
	WarmthScore         int                `json:"warmthScore" bson:"warmthScore"`
	HostilityIndicators []string           `json:"hostilityIndicators" bson:"hostilityIndicators"`
	ThreateningLanguage []string           `json:"threateningLanguage" bson:"threateningLanguage"`
	ComplianceIssues    []string           `json:"complianceIssues" bson:"complianceIssues"`
	Recommendation      ToneRecommendation `json:"recommendation" bson:"recommendation"`
	Concerns            []string           `json:"concerns" bson:"concerns"`
	Classifier          string             `json:"classifier" bson:"classifier"`
	CreatedAt           time.Time          `json:"createdAt" bson:"createdAt"`
}
