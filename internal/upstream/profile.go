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

// Profile is what the user-profile service knows about one learner. Status
// is free text; internal/classify normalizes it.
type Profile struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	RawStatus string `json:"status"`
	Answers   int    `json:"answers"`
}

type ProfileClient struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	cache   *ProfileCache
	logger  *zap.Logger
}

// NewProfileClient builds a client with an optional read-through cache;
// pass a nil cache to always hit the profile service directly.
func NewProfileClient(baseURL string, timeout time.Duration, cache *ProfileCache, logger *zap.Logger) *ProfileClient {
	return &ProfileClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		cache:   cache,
		logger:  logger,
	}
}

// Get fetches one learner profile with a bounded per-call timeout. Program
// rollups call this once per enrolled learner, so cache hits matter; cache
// failures fall through to a direct call and are never fatal.
func (c *ProfileClient) Get(ctx context.Context, userID string) (*Profile, error) {
	if c.cache != nil {
		if profile, ok := c.cache.Get(ctx, userID); ok {
			return profile, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("profile service call failed",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrProfileNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUpstreamUnavailable, err)
	}
	if profile.UserID == "" {
		profile.UserID = userID
	}

	if c.cache != nil {
		c.cache.Set(ctx, userID, &profile)
	}

	return &profile, nil
}
