package analytics

import "time"

// Summary is one hourly rollup row for a campaign, fed by the Kafka
// consumer. It backs trend charts only: snapshot recomputation always goes
// back to the event log, so a stale or lost summary is cosmetic.
type Summary struct {
	ID          int64     `db:"id" json:"id"`
	CampaignID  string    `db:"campaign_id" json:"campaign_id"`
	Date        time.Time `db:"date" json:"date"`
	Hour        int       `db:"hour" json:"hour"`
	Kind        string    `db:"kind" json:"kind"`
	TotalEvents int64     `db:"total_events" json:"total_events"`
	UniqueUsers int64     `db:"unique_users" json:"unique_users"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

func NewSummary(campaignID string, date time.Time, hour int, kind string) *Summary {
	return &Summary{
		CampaignID: campaignID,
		Date:       date.Truncate(24 * time.Hour),
		Hour:       hour,
		Kind:       kind,
		UpdatedAt:  time.Now().UTC(),
	}
}

func (s *Summary) IncrementEvents(count int64) {
	s.TotalEvents += count
	s.UpdatedAt = time.Now().UTC()
}

func (s *Summary) SetUniqueUsers(count int64) {
	s.UniqueUsers = count
	s.UpdatedAt = time.Now().UTC()
}
