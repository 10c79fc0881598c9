package analytics

import (
	"sort"

	"github.com/lureline/phishmetrics/internal/interaction"
)

// ProgramRollup aggregates across the campaigns of one training program.
// Per-campaign unique counts cannot simply be summed (a user may appear in
// several campaigns), so the rollup re-merges the underlying user-ID sets
// and deduplicates again at program scope.
type ProgramRollup struct {
	CampaignIDs      []string `json:"campaign_ids"`
	TotalEvents      int      `json:"total_events"`
	UniqueClickers   int      `json:"unique_clickers"`
	UniqueSubmitters int      `json:"unique_submitters"`
}

func BuildProgramRollup(eventsByCampaign map[string][]*interaction.Event) ProgramRollup {
	clickers := make(map[string]struct{})
	submitters := make(map[string]struct{})

	rollup := ProgramRollup{
		CampaignIDs: make([]string, 0, len(eventsByCampaign)),
	}

	for campaignID, events := range eventsByCampaign {
		rollup.CampaignIDs = append(rollup.CampaignIDs, campaignID)
		rollup.TotalEvents += len(events)

		for _, e := range events {
			if e.UserID == nil || *e.UserID == "" {
				continue
			}
			clickers[*e.UserID] = struct{}{}
			if e.HasPayload() {
				submitters[*e.UserID] = struct{}{}
			}
		}
	}

	sort.Strings(rollup.CampaignIDs)
	rollup.UniqueClickers = len(clickers)
	rollup.UniqueSubmitters = len(submitters)

	return rollup
}
