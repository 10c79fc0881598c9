package interaction

import (
	"strings"
	"time"
)

// Kind labels published interaction messages for downstream consumers.
const (
	KindClick      = "click"
	KindSubmission = "submission"
	KindOrphan     = "orphan"
)

// Event is one observed action on a phishing landing page. Events are
// append-only: the single allowed mutation after creation is attaching a
// payload to a payload-less click (see Repository.AttachPayload).
//
// Campaign, user and landing page IDs are nullable because orphaned
// submissions are stored without a resolved identity.
type Event struct {
	ID             int64     `db:"id" json:"id"`
	CampaignID     *string   `db:"campaign_id" json:"campaign_id,omitempty"`
	UserID         *string   `db:"user_id" json:"user_id,omitempty"`
	LandingPageID  *string   `db:"landing_page_id" json:"landing_page_id,omitempty"`
	SourceAddress  string    `db:"source_address" json:"source_address"`
	CorrelationKey string    `db:"correlation_key" json:"-"`
	Payload        string    `db:"payload" json:"payload,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

func NewClick(campaignID, userID, landingPageID, sourceAddress, correlationKey string) (*Event, error) {
	e := &Event{
		CampaignID:     &campaignID,
		UserID:         &userID,
		LandingPageID:  &landingPageID,
		SourceAddress:  sourceAddress,
		CorrelationKey: correlationKey,
		CreatedAt:      time.Now().UTC(),
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// NewOrphan builds a submission event with no resolved campaign/user
// identity, stored for manual triage.
func NewOrphan(sourceAddress, correlationKey, payload string) (*Event, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, ErrEmptyPayload
	}
	if sourceAddress == "" {
		return nil, ErrInvalidSourceAddress
	}
	return &Event{
		SourceAddress:  sourceAddress,
		CorrelationKey: correlationKey,
		Payload:        payload,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

func (e *Event) Validate() error {
	if e.CampaignID == nil || *e.CampaignID == "" {
		return ErrInvalidCampaignID
	}
	if e.UserID == nil || *e.UserID == "" {
		return ErrInvalidUserID
	}
	if e.LandingPageID == nil || *e.LandingPageID == "" {
		return ErrInvalidLandingPageID
	}
	if e.SourceAddress == "" {
		return ErrInvalidSourceAddress
	}
	return nil
}

func (e *Event) HasPayload() bool {
	return e.Payload != ""
}

func (e *Event) IsOrphan() bool {
	return e.CampaignID == nil || e.UserID == nil
}

// Message is the wire form published to Kafka for every stored event. The
// analytics rollup consumes it; the event log in Postgres stays the single
// source of truth.
type Message struct {
	EventID    int64     `json:"event_id"`
	Kind       string    `json:"kind"`
	CampaignID string    `json:"campaign_id,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
