package interaction

import "github.com/google/uuid"

// ClickRequest carries everything the landing-page collector knows when a
// target loads the page.
type ClickRequest struct {
	CampaignID    string `json:"campaign_id"`
	UserID        string `json:"user_id"`
	LandingPageID string `json:"landing_page_id"`
	SourceAddress string `json:"-"`
	// Token is an opaque value embedded in the landing-page URL. Unused by
	// the default correlator; see TokenCorrelator.
	Token string `json:"token,omitempty"`
}

// SubmissionRequest carries a form post. The landing page is deliberately
// unauthenticated, so no campaign or user identity arrives with it.
type SubmissionRequest struct {
	Payload       string `json:"payload"`
	SourceAddress string `json:"-"`
	Token         string `json:"token,omitempty"`
}

// Correlator derives the key that ties a later submission back to an
// earlier click. The key is recorded with the click and looked up at
// submission time, so swapping correlators never changes the event shape.
type Correlator interface {
	ClickKey(req ClickRequest) string
	SubmissionKey(req SubmissionRequest) string
}

// AddressCorrelator keys on the network origin. This is an accepted
// heuristic, not a bug: the landing page carries no cookies or session
// tokens to stay indistinguishable from a real phishing site. It cross-
// attributes users behind shared egress addresses (NAT, corporate proxies,
// mobile carriers); deployments that cannot tolerate that should switch to
// TokenCorrelator.
type AddressCorrelator struct{}

func (AddressCorrelator) ClickKey(req ClickRequest) string {
	return req.SourceAddress
}

func (AddressCorrelator) SubmissionKey(req SubmissionRequest) string {
	return req.SourceAddress
}

// TokenCorrelator keys on a short-lived opaque token embedded in the
// landing-page URL, which the form echoes back on post. A click arriving
// without a token gets a fresh one, which then never matches a submission;
// the mailer has to place the same token in the page link and the form.
type TokenCorrelator struct{}

func (TokenCorrelator) ClickKey(req ClickRequest) string {
	if req.Token != "" {
		return "tok:" + req.Token
	}
	return "tok:" + uuid.New().String()
}

func (TokenCorrelator) SubmissionKey(req SubmissionRequest) string {
	return "tok:" + req.Token
}
