package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lureline/phishmetrics/internal/analytics"
	"github.com/lureline/phishmetrics/internal/classify"
	"github.com/lureline/phishmetrics/internal/interaction"
	"github.com/lureline/phishmetrics/internal/upstream"
	"go.uber.org/zap"
)

type EventLister interface {
	ListByCampaign(ctx context.Context, campaignID string) ([]*interaction.Event, error)
	ListOrphans(ctx context.Context, limit int) ([]*interaction.Event, error)
}

type CampaignFetcher interface {
	Get(ctx context.Context, campaignID string) (*upstream.Campaign, error)
}

type ProfileFetcher interface {
	Get(ctx context.Context, userID string) (*upstream.Profile, error)
}

type TrendReader interface {
	GetSummariesByCampaign(ctx context.Context, campaignID string, from, to time.Time) ([]*analytics.Summary, error)
}

// ProgramStatusResult is the derived program lifecycle view for one
// campaign's training program.
type ProgramStatusResult struct {
	CampaignID    string                 `json:"campaign_id"`
	CampaignState classify.CampaignState `json:"campaign_state"`
	ProgramState  classify.ProgramState  `json:"program_state"`
	LearnerCount  int                    `json:"learner_count"`
	Completed     int                    `json:"completed"`
	InProgress    int                    `json:"in_progress"`
	Pending       int                    `json:"pending"`
	NeedsReview   int                    `json:"needs_review"`
	// Partial marks results where one or more profile lookups failed and
	// were counted as NeedsReview.
	Partial bool `json:"partial,omitempty"`
}

// Service composes the event store, the aggregation and classification
// engines and the two upstream collaborators into the report API. Every
// snapshot is recomputed from the event log on request; nothing here caches
// aggregates across requests.
type Service struct {
	events    EventLister
	campaigns CampaignFetcher
	profiles  ProfileFetcher
	trends    TrendReader
	logger    *zap.Logger
}

func NewService(
	events EventLister,
	campaigns CampaignFetcher,
	profiles ProfileFetcher,
	trends TrendReader,
	logger *zap.Logger) *Service {
	return &Service{
		events:    events,
		campaigns: campaigns,
		profiles:  profiles,
		trends:    trends,
		logger:    logger,
	}
}

// CampaignSnapshot recomputes the campaign's statistics from the full event
// log. When the campaign service is unavailable the snapshot is still
// served with recipient-dependent rates zeroed and Partial set; dashboards
// render that as "data incomplete" instead of crashing.
func (s *Service) CampaignSnapshot(ctx context.Context, campaignID string) (analytics.Snapshot, error) {
	events, err := s.events.ListByCampaign(ctx, campaignID)
	if err != nil {
		return analytics.Snapshot{}, fmt.Errorf("failed to load event log: %w", err)
	}

	campaign, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		if errors.Is(err, upstream.ErrCampaignNotFound) {
			return analytics.Snapshot{}, err
		}
		s.logger.Warn("campaign metadata unavailable, serving partial snapshot",
			zap.Error(err),
			zap.String("campaign_id", campaignID),
		)
		snapshot := analytics.BuildSnapshot(campaignID, 0, events)
		snapshot.Partial = true
		return snapshot, nil
	}

	snapshot := analytics.BuildSnapshot(campaignID, campaign.RecipientCount, events)

	s.logger.Info("Campaign snapshot computed",
		zap.String("campaign_id", campaignID),
		zap.Int("unique_clickers", snapshot.UniqueClickers),
		zap.Int("unique_submitters", snapshot.UniqueSubmitters),
		zap.String("risk_level", string(snapshot.RiskLevel)),
	)

	return snapshot, nil
}

func (s *Service) CampaignEvents(ctx context.Context, campaignID string) ([]*interaction.Event, error) {
	events, err := s.events.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event log: %w", err)
	}
	return events, nil
}

func (s *Service) OrphanEvents(ctx context.Context, limit int) ([]*interaction.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	events, err := s.events.ListOrphans(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load orphan events: %w", err)
	}
	return events, nil
}

// LearnerRecord builds the display-ready record for one learner. A profile
// fetch failure yields NeedsReview, not an error: one broken lookup must
// not take down a roster page.
func (s *Service) LearnerRecord(ctx context.Context, userID string) (classify.LearnerRecord, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("profile fetch failed, marking learner for review",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return classify.LearnerRecord{
			UserID:          userID,
			CanonicalStatus: classify.StatusNeedsReview,
		}, nil
	}

	return classify.NewLearnerRecord(userID, profile.Email, profile.RawStatus, profile.Answers), nil
}

// ScoreAssessment validates and classifies a timed quiz; persistence of the
// result belongs to the caller via the profile service.
func (s *Service) ScoreAssessment(session classify.AssessmentSession) (classify.AssessmentResult, error) {
	result, err := classify.ScoreSession(session)
	if err != nil {
		return classify.AssessmentResult{}, err
	}

	s.logger.Info("Assessment scored",
		zap.String("learner_email", session.LearnerEmail),
		zap.Float64("duration_minutes", result.DurationMinutes),
		zap.String("outcome", string(result.Outcome)),
	)

	return result, nil
}

// ProgramStatus derives the training program state for a campaign. The
// enrolled population is the campaign's recipient list when the campaign
// service provides one, otherwise the distinct users seen in the event log.
func (s *Service) ProgramStatus(ctx context.Context, campaignID string) (*ProgramStatusResult, error) {
	campaign, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		// Without lifecycle state there is no program status to derive.
		return nil, fmt.Errorf("failed to fetch campaign: %w", err)
	}

	learnerIDs := campaign.Recipients
	if len(learnerIDs) == 0 {
		events, err := s.events.ListByCampaign(ctx, campaignID)
		if err != nil {
			return nil, fmt.Errorf("failed to load event log: %w", err)
		}
		learnerIDs = distinctUsers(events)
	}

	result := &ProgramStatusResult{
		CampaignID:    campaignID,
		CampaignState: campaignState(campaign.Status),
		LearnerCount:  len(learnerIDs),
	}

	statuses := make([]classify.LearnerStatus, 0, len(learnerIDs))
	for _, userID := range learnerIDs {
		status := s.learnerStatus(ctx, userID, result)
		statuses = append(statuses, status)
	}

	result.ProgramState = classify.ProgramStatus(result.CampaignState, statuses)

	s.logger.Info("Program status derived",
		zap.String("campaign_id", campaignID),
		zap.String("program_state", string(result.ProgramState)),
		zap.Int("learners", result.LearnerCount),
		zap.Bool("partial", result.Partial),
	)

	return result, nil
}

func (s *Service) learnerStatus(ctx context.Context, userID string, result *ProgramStatusResult) classify.LearnerStatus {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		result.NeedsReview++
		result.Partial = true
		return classify.StatusNeedsReview
	}

	status := classify.CanonicalStatus(profile.RawStatus)
	switch status {
	case classify.StatusCompleted:
		result.Completed++
	case classify.StatusInProgress:
		result.InProgress++
	default:
		result.Pending++
	}
	return status
}

// CampaignTrend reads the hourly rollup for charts. The rollup is a
// convenience cache maintained by the analytics consumer, not a source of
// truth; snapshot numbers always win on disagreement.
func (s *Service) CampaignTrend(ctx context.Context, campaignID string, from, to time.Time) ([]*analytics.Summary, error) {
	summaries, err := s.trends.GetSummariesByCampaign(ctx, campaignID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign trend: %w", err)
	}
	return summaries, nil
}

func distinctUsers(events []*interaction.Event) []string {
	seen := make(map[string]struct{})
	users := make([]string, 0)
	for _, e := range events {
		if e.UserID == nil || *e.UserID == "" {
			continue
		}
		if _, ok := seen[*e.UserID]; ok {
			continue
		}
		seen[*e.UserID] = struct{}{}
		users = append(users, *e.UserID)
	}
	return users
}

func campaignState(status string) classify.CampaignState {
	switch status {
	case "completed":
		return classify.CampaignCompleted
	case "archived":
		return classify.CampaignArchived
	case "draft":
		return classify.CampaignDraft
	default:
		return classify.CampaignActive
	}
}
