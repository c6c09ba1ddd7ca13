package services

import (
	"context"
	"errors"
	"testing"

	"eventregistry/internal/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedNumber_CreateValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	tests := []struct {
		name     string
		nickname string
		number   int
	}{
		{"empty nickname", " @ ", 5},
		{"zero", "dave", 0},
		{"above the fixed range", "dave", domain.MaxFixedNumber + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.fixed.Create(ctx, tt.nickname, tt.number)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestFixedNumber_DuplicateIdentifier(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.fixed.Create(ctx, "dave", 2)
	require.NoError(t, err)

	_, err = h.fixed.Create(ctx, "@DAVE", 9)
	require.ErrorIs(t, err, domain.ErrDuplicateIdentifier)
	var conflict *domain.BindingConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, 2, conflict.Existing.Number)
	assert.Contains(t, err.Error(), "@dave -> 2")
}

func TestFixedNumber_MovesOwnersInEveryEvent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	e1 := h.db.seedEvent("E1", domain.DefaultMaxNumber)
	e2 := h.db.seedEvent("E2", domain.DefaultMaxNumber)

	d1 := h.register(t, e1.ID, "dave-tg", "dave")
	x1 := h.register(t, e1.ID, "x", "")
	x1b := h.register(t, e1.ID, "y", "")
	d2 := h.register(t, e2.ID, "dave-tg", "dave")
	holder := h.register(t, e2.ID, "z", "")
	z2 := h.register(t, e2.ID, "w", "")
	require.Equal(t, 3, number(t, x1b))
	require.Equal(t, 3, number(t, z2))

	outcome, err := h.fixed.Create(ctx, "dave", 3)
	require.NoError(t, err)

	require.Len(t, outcome.Evictions, 2)
	for _, ev := range outcome.Evictions {
		assert.Equal(t, 3, ev.FromNumber)
		assert.Equal(t, 4, ev.ToNumber)
	}
	require.Len(t, outcome.Reassignments, 2)
	for _, r := range outcome.Reassignments {
		require.NotNil(t, r.FromNumber)
		assert.Equal(t, 1, *r.FromNumber)
		assert.Equal(t, 3, r.ToNumber)
	}

	assert.Equal(t, 3, number(t, h.db.registrant(d1.ID)))
	assert.Equal(t, 3, number(t, h.db.registrant(d2.ID)))
	assert.Equal(t, 2, number(t, h.db.registrant(x1.ID)))
	assert.Equal(t, 2, number(t, h.db.registrant(holder.ID)))
	assert.Equal(t, 4, number(t, h.db.registrant(x1b.ID)))
	assert.Equal(t, 4, number(t, h.db.registrant(z2.ID)))

	for _, e := range []*domain.Event{e1, e2} {
		_, dup := h.db.activeNumbers(e.ID)
		assert.False(t, dup)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.EvictionsTotal))
	require.Len(t, h.email.reports, 1)
	assert.Equal(t, "ops@example.com", h.email.reports[0].To)
	assert.Equal(t, "dave", h.email.reports[0].Nickname)
	assert.Len(t, h.email.reports[0].Evictions, 2)
}

func TestFixedNumber_OwnerAlreadyOnNumber(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	e := h.db.seedEvent("E1", domain.DefaultMaxNumber)
	h.register(t, e.ID, "dave-tg", "dave")

	outcome, err := h.fixed.Create(ctx, "dave", 1)
	require.NoError(t, err)
	assert.Empty(t, outcome.Evictions)
	assert.Empty(t, outcome.Reassignments)
	assert.Empty(t, h.email.reports, "nothing moved, nothing to report")
}

func TestFixedNumber_ExhaustionRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	e := h.db.seedEvent("Tiny", 2)
	a := h.register(t, e.ID, "a", "")
	b := h.register(t, e.ID, "b", "")

	_, err := h.fixed.Create(ctx, "zed", 2)
	require.ErrorIs(t, err, domain.ErrAllocationExhausted)

	_, err = h.fixed.LookupByNickname(ctx, "zed")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, number(t, h.db.registrant(a.ID)))
	assert.Equal(t, 2, number(t, h.db.registrant(b.ID)))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.AllocationExhaustedTotal))
	assert.Empty(t, h.email.reports)
}

func TestFixedNumber_PreviewCommitsNothing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	e := h.db.seedEvent("E1", domain.DefaultMaxNumber)
	h.register(t, e.ID, "a", "")
	bob := h.register(t, e.ID, "b", "bob")

	preview, err := h.fixed.Preview(ctx, "dave", 2)
	require.NoError(t, err)
	assert.Empty(t, preview.Binding.ID)
	assert.Equal(t, "dave", preview.Binding.Nickname)
	require.Len(t, preview.Evictions, 1)
	assert.Equal(t, bob.ID, preview.Evictions[0].RegistrantID)
	assert.Equal(t, "E1", preview.Evictions[0].EventName)
	assert.Equal(t, 3, preview.Evictions[0].ToNumber)

	assert.Equal(t, 2, number(t, h.db.registrant(bob.ID)))
	list, err := h.fixed.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, h.email.reports)

	_, err = h.fixed.Create(ctx, "bob", 5)
	require.NoError(t, err)
	_, err = h.fixed.Preview(ctx, "eve", 5)
	require.ErrorIs(t, err, domain.ErrDuplicateNumber)
}

func TestFixedNumber_DeleteLeavesSeatsAlone(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	e := h.db.seedEvent("E1", domain.DefaultMaxNumber)
	outcome, err := h.fixed.Create(ctx, "dave", 7)
	require.NoError(t, err)
	d := h.register(t, e.ID, "dave-tg", "dave")
	require.Equal(t, 7, number(t, d))

	require.NoError(t, h.fixed.Delete(ctx, outcome.Binding.ID))
	require.ErrorIs(t, h.fixed.Delete(ctx, outcome.Binding.ID), domain.ErrNotFound)
	assert.Equal(t, 7, number(t, h.db.registrant(d.ID)))

	_, err = h.fixed.LookupByNumber(ctx, 7)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFixedNumber_EmailFailureKeepsBinding(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.email.err = errors.New("ses down")
	e := h.db.seedEvent("E1", domain.DefaultMaxNumber)
	h.register(t, e.ID, "a", "")

	outcome, err := h.fixed.Create(ctx, "dave", 1)
	require.NoError(t, err)
	require.Len(t, outcome.Evictions, 1)

	got, err := h.fixed.LookupByNickname(ctx, "Dave")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Number)
}

func TestFixedNumber_OwnersAreNeverEvicted(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	e1 := h.db.seedEvent("E1", domain.DefaultMaxNumber)
	e2 := h.db.seedEvent("E2", domain.DefaultMaxNumber)

	d1 := h.register(t, e1.ID, "tg-1", "dave")
	_, _, err := h.registrants.Register(ctx, e1.ID, domain.RegistrantInput{
		ExternalID: "tg-2", Nickname: "dave", DisplayName: "Second Dave", Transport: domain.TransportCar,
	})
	require.ErrorIs(t, err, domain.ErrDuplicateNickname)
	d2 := h.register(t, e2.ID, "tg-2", "dave")
	holder := h.register(t, e2.ID, "z", "")
	require.Equal(t, 2, number(t, holder))

	outcome, err := h.fixed.Create(ctx, "dave", 2)
	require.NoError(t, err)

	assert.Equal(t, 2, number(t, h.db.registrant(d1.ID)))
	assert.Equal(t, 2, number(t, h.db.registrant(d2.ID)))
	require.Len(t, outcome.Evictions, 1)
	assert.Equal(t, holder.ID, outcome.Evictions[0].RegistrantID)
	assert.Equal(t, 3, outcome.Evictions[0].ToNumber)

	moved := map[string]bool{}
	for _, r := range outcome.Reassignments {
		moved[r.RegistrantID] = true
		assert.Equal(t, 2, r.ToNumber)
	}
	assert.Equal(t, map[string]bool{d1.ID: true, d2.ID: true}, moved)
	for _, ev := range outcome.Evictions {
		assert.False(t, moved[ev.RegistrantID], "registrant %s both moved onto and evicted from the number", ev.RegistrantID)
	}
}
