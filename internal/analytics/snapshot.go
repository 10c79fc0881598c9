package analytics

import (
	"github.com/lureline/phishmetrics/internal/interaction"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Snapshot is derived, never stored: a pure reduction of a campaign's event
// log plus the recipient count supplied by the campaign service. Recomputing
// it from an unchanged log yields identical output.
type Snapshot struct {
	CampaignID       string    `json:"campaign_id"`
	RecipientCount   int       `json:"recipient_count"`
	UniqueClickers   int       `json:"unique_clickers"`
	UniqueSubmitters int       `json:"unique_submitters"`
	ClickRate        float64   `json:"click_rate"`
	SubmissionRate   float64   `json:"submission_rate"`
	ConversionRate   float64   `json:"conversion_rate"`
	RiskLevel        RiskLevel `json:"risk_level"`
	// Partial marks a snapshot built without campaign metadata because the
	// campaign service was unavailable; rates are zeroed, counts stand.
	Partial bool `json:"partial,omitempty"`
}

// BuildSnapshot reduces a campaign's events to deduplicated statistics.
// Uniqueness is set cardinality over user IDs, never raw event counts: a
// user who clicks three times and submits once counts once in each set.
// Orphan events carry no user ID and stay out of both sets.
func BuildSnapshot(campaignID string, recipientCount int, events []*interaction.Event) Snapshot {
	clickers := make(map[string]struct{})
	submitters := make(map[string]struct{})

	for _, e := range events {
		if e.UserID == nil || *e.UserID == "" {
			continue
		}
		clickers[*e.UserID] = struct{}{}
		if e.HasPayload() {
			submitters[*e.UserID] = struct{}{}
		}
	}

	s := Snapshot{
		CampaignID:       campaignID,
		RecipientCount:   recipientCount,
		UniqueClickers:   len(clickers),
		UniqueSubmitters: len(submitters),
	}

	s.ClickRate = ratio(s.UniqueClickers, s.RecipientCount)
	s.SubmissionRate = ratio(s.UniqueSubmitters, s.RecipientCount)
	s.ConversionRate = ratio(s.UniqueSubmitters, s.UniqueClickers)
	s.RiskLevel = ClassifyRisk(s.ClickRate, s.SubmissionRate)

	return s
}

// ClassifyRisk evaluates the tiers in order; the first match wins.
func ClassifyRisk(clickRate, submissionRate float64) RiskLevel {
	switch {
	case clickRate > 0.30 || submissionRate > 0.50:
		return RiskHigh
	case clickRate > 0.10 || submissionRate > 0.20:
		return RiskMedium
	default:
		return RiskLow
	}
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
