package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Campaign is the metadata the campaign service owns. RecipientCount comes
// from here, never from the event log: recipients who ignored the email
// produce no events at all.
type Campaign struct {
	ID             string    `json:"id"`
	RecipientCount int       `json:"recipient_count"`
	Recipients     []string  `json:"recipients,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

type CampaignClient struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

func NewCampaignClient(baseURL string, timeout time.Duration, logger *zap.Logger) *CampaignClient {
	return &CampaignClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger,
	}
}

// Get fetches one campaign with a bounded per-call timeout. A slow or
// failing campaign service yields ErrUpstreamUnavailable.
func (c *CampaignClient) Get(ctx context.Context, campaignID string) (*Campaign, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/campaigns/%s", c.baseURL, url.PathEscape(campaignID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build campaign request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("campaign service call failed",
			zap.Error(err),
			zap.String("campaign_id", campaignID),
		)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrCampaignNotFound
	case resp.StatusCode != http.StatusOK:
		c.logger.Warn("campaign service returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("campaign_id", campaignID),
		)
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var campaign Campaign
	if err := json.NewDecoder(resp.Body).Decode(&campaign); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUpstreamUnavailable, err)
	}

	return &campaign, nil
}
