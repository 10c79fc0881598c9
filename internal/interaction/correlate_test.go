package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressCorrelator(t *testing.T) {
	c := AddressCorrelator{}

	click := ClickRequest{CampaignID: "7", UserID: "42", SourceAddress: "10.0.0.1"}
	submit := SubmissionRequest{Payload: "pwd=1", SourceAddress: "10.0.0.1"}

	assert.Equal(t, c.ClickKey(click), c.SubmissionKey(submit))
}

func TestTokenCorrelator(t *testing.T) {
	c := TokenCorrelator{}

	click := ClickRequest{Token: "abc123", SourceAddress: "10.0.0.1"}
	submit := SubmissionRequest{Token: "abc123", SourceAddress: "192.0.2.9"}

	// The token matches even when the addresses differ.
	assert.Equal(t, c.ClickKey(click), c.SubmissionKey(submit))
	assert.Equal(t, "tok:abc123", c.ClickKey(click))
}

func TestTokenCorrelator_MissingTokenNeverMatches(t *testing.T) {
	c := TokenCorrelator{}

	key := c.ClickKey(ClickRequest{SourceAddress: "10.0.0.1"})
	assert.NotEqual(t, "tok:", key)
	assert.NotEqual(t, key, c.SubmissionKey(SubmissionRequest{SourceAddress: "10.0.0.1"}))
}
