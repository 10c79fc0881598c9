package analytics

import (
	"testing"
	"time"

	"github.com/lureline/phishmetrics/internal/interaction"
	"github.com/stretchr/testify/assert"
)

func TestBuildProgramRollup_DeduplicatesAcrossCampaigns(t *testing.T) {
	now := time.Now().UTC()

	// User 42 appears in both campaigns; the program-level count must not
	// double it the way summing per-campaign cardinalities would.
	byCampaign := map[string][]*interaction.Event{
		"7": {
			clickEvent("7", "42", now),
			submissionEvent("7", "42", now.Add(time.Minute)),
		},
		"8": {
			clickEvent("8", "42", now),
			clickEvent("8", "43", now),
		},
	}

	rollup := BuildProgramRollup(byCampaign)

	assert.Equal(t, []string{"7", "8"}, rollup.CampaignIDs)
	assert.Equal(t, 4, rollup.TotalEvents)
	assert.Equal(t, 2, rollup.UniqueClickers)
	assert.Equal(t, 1, rollup.UniqueSubmitters)
}

func TestBuildProgramRollup_Empty(t *testing.T) {
	rollup := BuildProgramRollup(nil)

	assert.Empty(t, rollup.CampaignIDs)
	assert.Zero(t, rollup.TotalEvents)
	assert.Zero(t, rollup.UniqueClickers)
	assert.Zero(t, rollup.UniqueSubmitters)
}
