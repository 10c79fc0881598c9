package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCampaignClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/campaigns/7", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"7","recipient_count":100,"status":"finished","recipients":["42","43"]}`))
	}))
	defer server.Close()

	client := NewCampaignClient(server.URL, time.Second, zap.NewNop())

	campaign, err := client.Get(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "7", campaign.ID)
	assert.Equal(t, 100, campaign.RecipientCount)
	assert.Equal(t, "finished", campaign.Status)
	assert.Equal(t, []string{"42", "43"}, campaign.Recipients)
}

func TestCampaignClient_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewCampaignClient(server.URL, time.Second, zap.NewNop())

	_, err := client.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestCampaignClient_ServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewCampaignClient(server.URL, time.Second, zap.NewNop())

	_, err := client.Get(context.Background(), "7")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestCampaignClient_TimeoutIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewCampaignClient(server.URL, 20*time.Millisecond, zap.NewNop())

	_, err := client.Get(context.Background(), "7")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestProfileClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"email":"learner@example.com","status":"REFORMED","answers":12}`))
	}))
	defer server.Close()

	client := NewProfileClient(server.URL, time.Second, nil, zap.NewNop())

	profile, err := client.Get(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", profile.UserID, "user id backfilled when upstream omits it")
	assert.Equal(t, "REFORMED", profile.RawStatus)
	assert.Equal(t, 12, profile.Answers)
}

func TestProfileClient_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewProfileClient(server.URL, time.Second, nil, zap.NewNop())

	_, err := client.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestProfileClient_CacheHitSkipsUpstream(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"user_id":"42","status":"ACTIVE"}`))
	}))
	defer server.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	cache := NewProfileCache(rdb, time.Minute, zap.NewNop())

	client := NewProfileClient(server.URL, time.Second, cache, zap.NewNop())
	ctx := context.Background()

	first, err := client.Get(ctx, "42")
	require.NoError(t, err)

	second, err := client.Get(ctx, "42")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "second fetch served from cache")
}
