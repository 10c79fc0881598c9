package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type Repository interface {
	UpsertSummary(ctx context.Context, summary *Summary) error
	GetSummariesByCampaign(ctx context.Context, campaignID string, from, to time.Time) ([]*Summary, error)
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

func (r *repository) UpsertSummary(ctx context.Context, summary *Summary) error {
	query := `
		INSERT INTO campaign_summary (campaign_id, date, hour, kind, total_events, unique_users, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (campaign_id, date, hour, kind)
		DO UPDATE SET
			total_events = campaign_summary.total_events + EXCLUDED.total_events,
			unique_users = EXCLUDED.unique_users,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		summary.CampaignID,
		summary.Date,
		summary.Hour,
		summary.Kind,
		summary.TotalEvents,
		summary.UniqueUsers,
		summary.UpdatedAt,
	).Scan(&summary.ID)

	if err != nil {
		r.logger.Error("Failed to upsert summary", zap.Error(err))
		return fmt.Errorf("failed to upsert summary: %w", err)
	}

	r.logger.Debug("Summary upserted",
		zap.String("campaign_id", summary.CampaignID),
		zap.String("date", summary.Date.Format("2006-01-02")),
		zap.Int("hour", summary.Hour),
		zap.String("kind", summary.Kind),
		zap.Int64("total_events", summary.TotalEvents),
	)

	return nil
}

func (r *repository) GetSummariesByCampaign(
	ctx context.Context,
	campaignID string,
	from, to time.Time) ([]*Summary, error) {
	query := `
		SELECT id, campaign_id, date, hour, kind, total_events, unique_users, updated_at
		FROM campaign_summary
		WHERE campaign_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, hour
	`

	var summaries []*Summary
	err := r.db.SelectContext(ctx, &summaries, query, campaignID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get summaries: %w", err)
	}

	return summaries, nil
}
