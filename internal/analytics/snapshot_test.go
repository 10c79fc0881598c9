package analytics

import (
	"testing"
	"time"

	"github.com/lureline/phishmetrics/internal/interaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func clickEvent(campaignID, userID string, at time.Time) *interaction.Event {
	return &interaction.Event{
		CampaignID:    strptr(campaignID),
		UserID:        strptr(userID),
		LandingPageID: strptr("lp-1"),
		SourceAddress: "203.0.113.9",
		CreatedAt:     at,
	}
}

func submissionEvent(campaignID, userID string, at time.Time) *interaction.Event {
	e := clickEvent(campaignID, userID, at)
	e.Payload = "user=x&pwd=y"
	return e
}

func orphanEvent(at time.Time) *interaction.Event {
	return &interaction.Event{
		SourceAddress: "198.51.100.4",
		Payload:       "pwd=123",
		CreatedAt:     at,
	}
}

func TestBuildSnapshot_SetSemantics(t *testing.T) {
	now := time.Now().UTC()

	// User 42 clicks three times and submits once: one clicker, one
	// submitter, not four rows.
	events := []*interaction.Event{
		clickEvent("7", "42", now),
		clickEvent("7", "42", now.Add(time.Minute)),
		clickEvent("7", "42", now.Add(2*time.Minute)),
		submissionEvent("7", "42", now.Add(3*time.Minute)),
		clickEvent("7", "43", now.Add(4*time.Minute)),
	}

	s := BuildSnapshot("7", 10, events)

	assert.Equal(t, 2, s.UniqueClickers)
	assert.Equal(t, 1, s.UniqueSubmitters)
	assert.InDelta(t, 0.2, s.ClickRate, 1e-9)
	assert.InDelta(t, 0.1, s.SubmissionRate, 1e-9)
	assert.InDelta(t, 0.5, s.ConversionRate, 1e-9)
}

func TestBuildSnapshot_OrphansExcludedFromSets(t *testing.T) {
	now := time.Now().UTC()
	events := []*interaction.Event{
		clickEvent("7", "42", now),
		orphanEvent(now.Add(time.Minute)),
	}

	s := BuildSnapshot("7", 100, events)

	assert.Equal(t, 1, s.UniqueClickers)
	assert.Equal(t, 0, s.UniqueSubmitters)
}

func TestBuildSnapshot_ZeroDenominators(t *testing.T) {
	s := BuildSnapshot("7", 0, nil)

	assert.Zero(t, s.ClickRate)
	assert.Zero(t, s.SubmissionRate)
	assert.Zero(t, s.ConversionRate)
	assert.Equal(t, RiskLow, s.RiskLevel)
}

func TestBuildSnapshot_RecipientCountExternal(t *testing.T) {
	now := time.Now().UTC()
	events := []*interaction.Event{clickEvent("7", "42", now)}

	// Recipient count comes from the campaign service and may exceed the
	// number of users who ever produced events.
	s := BuildSnapshot("7", 1000, events)
	assert.Equal(t, 1000, s.RecipientCount)
	assert.Equal(t, 1, s.UniqueClickers)
}

func TestBuildSnapshot_Idempotent(t *testing.T) {
	now := time.Now().UTC()
	events := []*interaction.Event{
		clickEvent("7", "42", now),
		submissionEvent("7", "42", now.Add(time.Minute)),
		clickEvent("7", "44", now.Add(2*time.Minute)),
	}

	first := BuildSnapshot("7", 50, events)
	second := BuildSnapshot("7", 50, events)

	require.Equal(t, first, second)
}

func TestClassifyRisk_TierOrder(t *testing.T) {
	tests := []struct {
		name           string
		clickRate      float64
		submissionRate float64
		want           RiskLevel
	}{
		{"high by click rate", 0.35, 0, RiskHigh},
		{"high by submission rate", 0, 0.51, RiskHigh},
		{"medium by click rate", 0.11, 0, RiskMedium},
		{"medium by submission rate", 0, 0.21, RiskMedium},
		{"boundary click rate not high", 0.30, 0, RiskMedium},
		{"boundary submission rate not high", 0, 0.50, RiskMedium},
		{"boundary click rate not medium", 0.10, 0, RiskLow},
		{"all quiet", 0.05, 0.01, RiskLow},
		{"high submission with low clicks still high", 0.05, 0.60, RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRisk(tt.clickRate, tt.submissionRate))
		})
	}
}

// The worked example: 100 recipients, 35 clickers, 10 submitters.
func TestBuildSnapshot_RiskExample(t *testing.T) {
	now := time.Now().UTC()
	events := make([]*interaction.Event, 0, 45)
	for i := 0; i < 35; i++ {
		userID := string(rune('A'+i%26)) + string(rune('a'+i/26))
		events = append(events, clickEvent("9", userID, now))
		if i < 10 {
			events = append(events, submissionEvent("9", userID, now.Add(time.Minute)))
		}
	}

	s := BuildSnapshot("9", 100, events)

	require.Equal(t, 35, s.UniqueClickers)
	require.Equal(t, 10, s.UniqueSubmitters)
	assert.InDelta(t, 0.35, s.ClickRate, 1e-9)
	assert.Equal(t, RiskHigh, s.RiskLevel)
}
