package interaction

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*httptest.Server, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	service := NewService(repo, &fakeProducer{}, AddressCorrelator{}, zap.NewNop())
	handler := NewHandler(service, zap.NewNop())
	server := httptest.NewServer(handler.Routes())
	t.Cleanup(server.Close)
	return server, repo
}

func postJSON(t *testing.T, url string, body any, headers map[string]string) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestHandleClick_Created(t *testing.T) {
	server, repo := newTestServer(t)

	resp := postJSON(t, server.URL+"/track/click", map[string]string{
		"campaign_id":     "7",
		"user_id":         "42",
		"landing_page_id": "lp-1",
	}, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var body map[string]int64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotZero(t, body["event_id"])
	require.Len(t, repo.events, 1)
}

func TestHandleClick_SourceAddressFromForwardedHeader(t *testing.T) {
	server, repo := newTestServer(t)

	resp := postJSON(t, server.URL+"/track/click", map[string]string{
		"campaign_id":     "7",
		"user_id":         "42",
		"landing_page_id": "lp-1",
	}, map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, repo.events, 1)
	assert.Equal(t, "203.0.113.9", repo.events[0].SourceAddress)
}

func TestHandleClick_ValidationError(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/track/click", map[string]string{
		"user_id":         "42",
		"landing_page_id": "lp-1",
	}, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleClick_MalformedBody(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/track/click", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleSubmit_Correlated(t *testing.T) {
	server, _ := newTestServer(t)
	headers := map[string]string{"X-Forwarded-For": "203.0.113.9"}

	resp := postJSON(t, server.URL+"/track/click", map[string]string{
		"campaign_id":     "7",
		"user_id":         "42",
		"landing_page_id": "lp-1",
	}, headers)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, server.URL+"/track/submit", map[string]string{
		"payload": "pwd=123",
	}, headers)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var result SubmissionResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Correlated)
	assert.Equal(t, "7", result.CampaignID)
	assert.Equal(t, "42", result.UserID)
}

func TestHandleSubmit_OrphanAccepted(t *testing.T) {
	server, repo := newTestServer(t)

	resp := postJSON(t, server.URL+"/track/submit", map[string]string{
		"payload": "pwd=123",
	}, map[string]string{"X-Forwarded-For": "192.0.2.50"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var result SubmissionResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Orphaned)

	require.Len(t, repo.events, 1)
	assert.True(t, repo.events[0].IsOrphan())
}

func TestHandleSubmit_EmptyPayload(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/track/submit", map[string]string{
		"payload": "",
	}, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleHealth(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
