package interaction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// openClickCandidates bounds how many open clicks the resolver will try
// before declaring a submission orphaned.
const openClickCandidates = 25

type Publisher interface {
	SendMessage(ctx context.Context, key string, value any) error
}

// SubmissionResult is the typed outcome of RecordSubmission. An orphaned
// submission is a distinct result, not an error: the event was stored and
// the caller decides how to surface it for triage.
type SubmissionResult struct {
	EventID    int64  `json:"event_id"`
	Correlated bool   `json:"correlated"`
	Orphaned   bool   `json:"orphaned"`
	CampaignID string `json:"campaign_id,omitempty"`
	UserID     string `json:"user_id,omitempty"`
}

type Service struct {
	repo       Repository
	producer   Publisher
	correlator Correlator
	logger     *zap.Logger
}

func NewService(repo Repository, producer Publisher, correlator Correlator, logger *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		producer:   producer,
		correlator: correlator,
		logger:     logger,
	}
}

// RecordClick always creates a new event. Repeat clicks from the same user
// are distinct events; uniqueness is an aggregation concern, not a storage
// one.
func (s *Service) RecordClick(ctx context.Context, req ClickRequest) (int64, error) {
	event, err := NewClick(req.CampaignID, req.UserID, req.LandingPageID, req.SourceAddress, s.correlator.ClickKey(req))
	if err != nil {
		s.logger.Warn("failed to validate click", zap.Error(err))
		return 0, fmt.Errorf("invalid click: %w", err)
	}

	if err := s.repo.Create(ctx, event); err != nil {
		s.logger.Error("failed to create click event", zap.Error(err))
		return 0, fmt.Errorf("failed to create click event: %w", err)
	}

	s.publish(ctx, event, KindClick)

	s.logger.Info("Click recorded",
		zap.Int64("event_id", event.ID),
		zap.String("campaign_id", req.CampaignID),
		zap.String("user_id", req.UserID),
	)
	return event.ID, nil
}

// RecordSubmission attaches the payload to the most recently created open
// click sharing the correlation key. When a concurrent submission wins the
// compare-and-set on a candidate, the resolver falls back to the next-most-
// recent open click; when no candidate accepts the payload the submission
// is stored as an orphan, never dropped.
func (s *Service) RecordSubmission(ctx context.Context, req SubmissionRequest) (*SubmissionResult, error) {
	if strings.TrimSpace(req.Payload) == "" {
		return nil, fmt.Errorf("invalid submission: %w", ErrEmptyPayload)
	}
	if req.SourceAddress == "" {
		return nil, fmt.Errorf("invalid submission: %w", ErrInvalidSourceAddress)
	}

	key := s.correlator.SubmissionKey(req)

	candidates, err := s.repo.OpenClicksByKey(ctx, key, openClickCandidates)
	if err != nil {
		s.logger.Error("failed to look up open clicks", zap.Error(err), zap.String("key", key))
		return nil, fmt.Errorf("failed to resolve submission: %w", err)
	}

	for _, candidate := range candidates {
		attached, err := s.repo.AttachPayload(ctx, candidate.ID, req.Payload)
		if err != nil {
			if errors.Is(err, ErrPayloadAlreadyAttached) {
				s.logger.Debug("lost attach race, trying next candidate",
					zap.Int64("event_id", candidate.ID))
				continue
			}
			return nil, fmt.Errorf("failed to attach payload: %w", err)
		}

		s.publish(ctx, attached, KindSubmission)

		result := &SubmissionResult{
			EventID:    attached.ID,
			Correlated: true,
		}
		if attached.CampaignID != nil {
			result.CampaignID = *attached.CampaignID
		}
		if attached.UserID != nil {
			result.UserID = *attached.UserID
		}

		s.logger.Info("Submission correlated",
			zap.Int64("event_id", attached.ID),
			zap.String("campaign_id", result.CampaignID),
			zap.String("user_id", result.UserID),
		)
		return result, nil
	}

	return s.recordOrphan(ctx, req, key)
}

func (s *Service) recordOrphan(ctx context.Context, req SubmissionRequest, key string) (*SubmissionResult, error) {
	orphan, err := NewOrphan(req.SourceAddress, key, req.Payload)
	if err != nil {
		return nil, fmt.Errorf("invalid submission: %w", err)
	}

	if err := s.repo.Create(ctx, orphan); err != nil {
		s.logger.Error("failed to store orphan submission", zap.Error(err))
		return nil, fmt.Errorf("failed to store orphan submission: %w", err)
	}

	s.publish(ctx, orphan, KindOrphan)

	s.logger.Warn("Submission orphaned",
		zap.Int64("event_id", orphan.ID),
		zap.String("source_address", req.SourceAddress),
	)

	return &SubmissionResult{
		EventID:  orphan.ID,
		Orphaned: true,
	}, nil
}

func (s *Service) ListByCampaign(ctx context.Context, campaignID string) ([]*Event, error) {
	if campaignID == "" {
		return nil, ErrInvalidCampaignID
	}
	events, err := s.repo.ListByCampaign(ctx, campaignID)
	if err != nil {
		s.logger.Error("failed to list campaign events", zap.Error(err), zap.String("campaign_id", campaignID))
		return nil, fmt.Errorf("failed to list campaign events: %w", err)
	}
	return events, nil
}

func (s *Service) ListOrphans(ctx context.Context, limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = 100
	}
	events, err := s.repo.ListOrphans(ctx, limit)
	if err != nil {
		s.logger.Error("failed to list orphan events", zap.Error(err))
		return nil, fmt.Errorf("failed to list orphan events: %w", err)
	}
	return events, nil
}

// publish mirrors the stored event onto the rollup topic. Publish failures
// are logged, not returned: the Postgres write already succeeded and the
// event log is authoritative.
func (s *Service) publish(ctx context.Context, event *Event, kind string) {
	msg := Message{
		EventID:   event.ID,
		Kind:      kind,
		CreatedAt: event.CreatedAt,
	}
	if event.CampaignID != nil {
		msg.CampaignID = *event.CampaignID
	}
	if event.UserID != nil {
		msg.UserID = *event.UserID
	}

	// Events for one campaign share a partition.
	partitionKey := msg.CampaignID
	if partitionKey == "" {
		partitionKey = event.SourceAddress
	}

	if err := s.producer.SendMessage(ctx, partitionKey, msg); err != nil {
		s.logger.Error("failed to publish event message",
			zap.Int64("event_id", event.ID),
			zap.Error(err))
	}
}
