package draftstore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"eventregistry/internal/domain"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDraft() *domain.RegistrationDraft {
	return &domain.RegistrationDraft{
		ID:          "d-1",
		EventID:     "ev-1",
		ExternalID:  "tg-42",
		Nickname:    "rider",
		DisplayName: "Rider One",
		Step:        domain.DraftStepPhone,
		UpdatedAt:   time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRedisStore_SaveAndGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer mock.ClearExpect()
	store := NewRedisStore(db, 30*time.Minute)
	ctx := context.Background()

	d := sampleDraft()
	data, err := json.Marshal(d)
	require.NoError(t, err)

	mock.ExpectSet("registration:draft:d-1", data, 30*time.Minute).SetVal("OK")
	require.NoError(t, store.Save(ctx, d))

	mock.ExpectGet("registration:draft:d-1").SetVal(string(data))
	got, err := store.Get(ctx, "d-1")
	require.NoError(t, err)
	assert.Equal(t, d, got)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_GetMissing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, time.Minute)

	mock.ExpectGet("registration:draft:gone").RedisNil()
	_, err := store.Get(context.Background(), "gone")
	require.ErrorIs(t, err, domain.ErrNotFound)

	mock.ExpectGet("registration:draft:broken").SetVal("{not json")
	_, err = store.Get(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Delete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, time.Minute)
	ctx := context.Background()

	mock.ExpectDel("registration:draft:d-1").SetVal(1)
	require.NoError(t, store.Delete(ctx, "d-1"))

	mock.ExpectDel("registration:draft:d-1").SetVal(0)
	require.ErrorIs(t, store.Delete(ctx, "d-1"), domain.ErrNotFound)

	mock.ExpectDel("registration:draft:d-2").SetErr(errors.New("connection refused"))
	err := store.Delete(ctx, "d-2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	assert.NoError(t, mock.ExpectationsWereMet())
}
