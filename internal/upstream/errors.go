package upstream

import "errors"

var (
	// ErrUpstreamUnavailable covers timeouts and transport/server failures
	// from a collaborator. Callers degrade (partial snapshot, NeedsReview
	// learner) instead of failing the whole request.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")

	ErrCampaignNotFound = errors.New("campaign not found")

	ErrProfileNotFound = errors.New("user profile not found")
)
