package interaction

import "errors"

var (
	ErrInvalidCampaignID = errors.New("invalid campaign id")

	ErrInvalidUserID = errors.New("invalid user id")

	ErrInvalidLandingPageID = errors.New("invalid landing page id")

	ErrInvalidSourceAddress = errors.New("invalid source address")

	ErrEmptyPayload = errors.New("empty payload")

	// ErrPayloadAlreadyAttached is the compare-and-set miss: the target
	// click received a payload from a concurrent submission.
	ErrPayloadAlreadyAttached = errors.New("payload already attached")

	ErrEventNotFound = errors.New("event not found")
)
