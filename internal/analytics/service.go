package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lureline/phishmetrics/internal/interaction"
	"go.uber.org/zap"
)

// Service folds the collector's Kafka stream into hourly campaign_summary
// rows. The in-memory set only deduplicates unique users inside the current
// hour bucket; it is best-effort and resets on restart, which is acceptable
// for a trend cache that is never treated as authoritative.
type Service struct {
	repo   Repository
	logger *zap.Logger

	uniqueUsers map[string]map[string]bool
	bucketTime  map[string]time.Time
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:        repo,
		logger:      logger,
		uniqueUsers: make(map[string]map[string]bool),
		bucketTime:  make(map[string]time.Time),
	}
}

func (s *Service) ProcessMessage(ctx context.Context, msg *interaction.Message) error {
	campaignID := msg.CampaignID
	if campaignID == "" {
		// Orphans roll up under a reserved bucket so triage volume shows
		// on dashboards too.
		campaignID = "unattributed"
	}

	date := msg.CreatedAt.Truncate(24 * time.Hour)
	hour := msg.CreatedAt.Hour()

	key := fmt.Sprintf("%s-%s-%d-%s", campaignID, date.Format("2006-01-02"), hour, msg.Kind)

	if s.uniqueUsers[key] == nil {
		s.uniqueUsers[key] = make(map[string]bool)
		s.bucketTime[key] = date.Add(time.Duration(hour) * time.Hour)
	}
	if msg.UserID != "" {
		s.uniqueUsers[key][msg.UserID] = true
	}

	summary := NewSummary(campaignID, date, hour, msg.Kind)
	summary.IncrementEvents(1)
	summary.SetUniqueUsers(int64(len(s.uniqueUsers[key])))

	if err := s.repo.UpsertSummary(ctx, summary); err != nil {
		return fmt.Errorf("failed to upsert summary: %w", err)
	}

	s.logger.Debug("Event rolled up",
		zap.Int64("event_id", msg.EventID),
		zap.String("campaign_id", campaignID),
		zap.String("kind", msg.Kind),
		zap.Int("hour", hour),
	)

	return nil
}

// CreateMessageHandler adapts ProcessMessage to the Kafka consumer contract.
func (s *Service) CreateMessageHandler() func(ctx context.Context, key, value []byte) error {
	return func(ctx context.Context, key, value []byte) error {
		var msg interaction.Message
		if err := json.Unmarshal(value, &msg); err != nil {
			s.logger.Error("Failed to unmarshal event message",
				zap.Error(err),
				zap.String("value", string(value)),
			)
			return err
		}

		return s.ProcessMessage(ctx, &msg)
	}
}

func (s *Service) GetSummaries(ctx context.Context, campaignID string, from, to time.Time) ([]*Summary, error) {
	return s.repo.GetSummariesByCampaign(ctx, campaignID, from, to)
}

// CleanupOldCache drops unique-user sets for buckets older than a day.
func (s *Service) CleanupOldCache() {
	cutoff := time.Now().UTC().Add(-24 * time.Hour)

	for key, bucket := range s.bucketTime {
		if bucket.Before(cutoff) {
			delete(s.uniqueUsers, key)
			delete(s.bucketTime, key)
		}
	}

	s.logger.Debug("Cache cleanup completed")
}
