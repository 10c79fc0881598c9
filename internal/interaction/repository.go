package interaction

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, event *Event) error
	AttachPayload(ctx context.Context, id int64, payload string) (*Event, error)
	OpenClicksByKey(ctx context.Context, key string, limit int) ([]*Event, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]*Event, error)
	ListOrphans(ctx context.Context, limit int) ([]*Event, error)
	GetByID(ctx context.Context, id int64) (*Event, error)
}

type repository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewRepository(db *sqlx.DB, logger *zap.Logger) Repository {
	return &repository{
		db:     db,
		logger: logger,
	}
}

func (r *repository) Create(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO interaction_events (campaign_id, user_id, landing_page_id, source_address, correlation_key, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		event.CampaignID,
		event.UserID,
		event.LandingPageID,
		event.SourceAddress,
		event.CorrelationKey,
		event.Payload,
		event.CreatedAt,
	).Scan(&event.ID)

	if err != nil {
		r.logger.Error("Failed to create event", zap.Error(err))
		return fmt.Errorf("failed to create event: %w", err)
	}

	r.logger.Debug("Event created",
		zap.Int64("event_id", event.ID),
		zap.String("source_address", event.SourceAddress),
		zap.Bool("orphan", event.IsOrphan()),
	)

	return nil
}

// AttachPayload is a compare-and-set: the payload lands only if the target
// event is still payload-less. A concurrent submission that already won the
// race leaves zero rows updated, reported as ErrPayloadAlreadyAttached so
// the resolver can fall back to the next-most-recent open click.
func (r *repository) AttachPayload(ctx context.Context, id int64, payload string) (*Event, error) {
	query := `
		UPDATE interaction_events
		SET payload = $2
		WHERE id = $1 AND payload = ''
		RETURNING id, campaign_id, user_id, landing_page_id, source_address, correlation_key, payload, created_at
	`

	var event Event
	err := r.db.QueryRowxContext(ctx, query, id, payload).StructScan(&event)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPayloadAlreadyAttached
		}
		r.logger.Error("Failed to attach payload", zap.Error(err), zap.Int64("event_id", id))
		return nil, fmt.Errorf("failed to attach payload: %w", err)
	}

	r.logger.Debug("Payload attached",
		zap.Int64("event_id", event.ID),
		zap.String("source_address", event.SourceAddress),
	)

	return &event, nil
}

// OpenClicksByKey returns payload-less click events for a correlation key,
// most recently created first. ID breaks created_at ties since IDs are
// assigned in insertion order.
func (r *repository) OpenClicksByKey(ctx context.Context, key string, limit int) ([]*Event, error) {
	query := `
		SELECT id, campaign_id, user_id, landing_page_id, source_address, correlation_key, payload, created_at
		FROM interaction_events
		WHERE correlation_key = $1 AND payload = '' AND campaign_id IS NOT NULL
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	var events []*Event
	err := r.db.SelectContext(ctx, &events, query, key, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get open clicks: %w", err)
	}

	return events, nil
}

func (r *repository) ListByCampaign(ctx context.Context, campaignID string) ([]*Event, error) {
	query := `
		SELECT id, campaign_id, user_id, landing_page_id, source_address, correlation_key, payload, created_at
		FROM interaction_events
		WHERE campaign_id = $1
		ORDER BY created_at DESC, id DESC
	`

	var events []*Event
	err := r.db.SelectContext(ctx, &events, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign events: %w", err)
	}

	return events, nil
}

func (r *repository) ListOrphans(ctx context.Context, limit int) ([]*Event, error) {
	query := `
		SELECT id, campaign_id, user_id, landing_page_id, source_address, correlation_key, payload, created_at
		FROM interaction_events
		WHERE campaign_id IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	var events []*Event
	err := r.db.SelectContext(ctx, &events, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orphan events: %w", err)
	}

	return events, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Event, error) {
	query := `
		SELECT id, campaign_id, user_id, landing_page_id, source_address, correlation_key, payload, created_at
		FROM interaction_events
		WHERE id = $1
	`

	var event Event
	err := r.db.GetContext(ctx, &event, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return &event, nil
}
