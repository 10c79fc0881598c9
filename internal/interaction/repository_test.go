package interaction

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "sqlmock")
	return NewRepository(db, zap.NewNop()), mock
}

func eventColumns() []string {
	return []string{"id", "campaign_id", "user_id", "landing_page_id", "source_address", "correlation_key", "payload", "created_at"}
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	event, err := NewClick("7", "42", "lp-1", "10.0.0.1", "10.0.0.1")
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO interaction_events")).
		WithArgs(event.CampaignID, event.UserID, event.LandingPageID, "10.0.0.1", "10.0.0.1", "", event.CreatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(17)))

	err = repo.Create(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, int64(17), event.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_AttachPayload(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE interaction_events")).
		WithArgs(int64(17), "pwd=123").
		WillReturnRows(sqlmock.NewRows(eventColumns()).
			AddRow(int64(17), "7", "42", "lp-1", "10.0.0.1", "10.0.0.1", "pwd=123", now))

	event, err := repo.AttachPayload(ctx, 17, "pwd=123")
	require.NoError(t, err)
	assert.Equal(t, int64(17), event.ID)
	assert.Equal(t, "pwd=123", event.Payload)
	require.NotNil(t, event.CampaignID)
	assert.Equal(t, "7", *event.CampaignID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_AttachPayload_AlreadyAttached(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	// Zero rows back from the compare-and-set means a concurrent
	// submission already claimed the click.
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE interaction_events")).
		WithArgs(int64(17), "pwd=123").
		WillReturnRows(sqlmock.NewRows(eventColumns()))

	event, err := repo.AttachPayload(ctx, 17, "pwd=123")
	assert.Nil(t, event)
	assert.ErrorIs(t, err, ErrPayloadAlreadyAttached)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_OpenClicksByKey(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE correlation_key = $1 AND payload = '' AND campaign_id IS NOT NULL")).
		WithArgs("10.0.0.1", 25).
		WillReturnRows(sqlmock.NewRows(eventColumns()).
			AddRow(int64(9), "7", "43", "lp-1", "10.0.0.1", "10.0.0.1", "", now).
			AddRow(int64(5), "7", "42", "lp-1", "10.0.0.1", "10.0.0.1", "", now.Add(-time.Minute)))

	events, err := repo.OpenClicksByKey(ctx, "10.0.0.1", 25)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(9), events[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListOrphans(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE campaign_id IS NULL")).
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows(eventColumns()).
			AddRow(int64(3), nil, nil, nil, "192.0.2.50", "192.0.2.50", "pwd=abc", now))

	events, err := repo.ListOrphans(ctx, 100)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].IsOrphan())
	assert.Equal(t, "pwd=abc", events[0].Payload)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows(eventColumns()))

	event, err := repo.GetByID(ctx, 404)
	assert.Nil(t, event)
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
