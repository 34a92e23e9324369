package churnboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotIgnoresStaleResolve(t *testing.T) {
	var slot Slot[int]
	firstCtx, first := slot.Begin(context.Background())
	_, second := slot.Begin(context.Background())

	assert.ErrorIs(t, firstCtx.Err(), context.Canceled)
	assert.False(t, slot.Resolve(first, 1))
	assert.True(t, slot.Resolve(second, 2))

	result := slot.Snapshot()
	assert.Equal(t, StateSuccess, result.State)
	assert.Equal(t, 2, result.Data)
}

func TestSlotStaleFailureDoesNotOverwriteNewerData(t *testing.T) {
	var slot Slot[string]
	_, first := slot.Begin(context.Background())
	_, second := slot.Begin(context.Background())
	require.True(t, slot.Resolve(second, "fresh"))

	assert.False(t, slot.Fail(first, "boom"))
	assert.Equal(t, "fresh", slot.Snapshot().Data)
	assert.False(t, slot.Snapshot().IsError())
}

func TestSlotDropsDataOnReloadByDefault(t *testing.T) {
	var slot Slot[[]int]
	_, err := slot.Run(context.Background(), func(context.Context) ([]int, error) {
		return []int{1, 2}, nil
	}, nil)
	require.NoError(t, err)

	_, ticket := slot.Begin(context.Background())
	loading := slot.Snapshot()
	assert.True(t, loading.IsLoading())
	assert.False(t, loading.HasData)

	slot.Fail(ticket, "Failed to load")
	failed := slot.Snapshot()
	assert.True(t, failed.IsError())
	assert.False(t, failed.HasData)
	assert.Nil(t, failed.Data)

	slot.Dismiss()
	assert.Equal(t, StateIdle, slot.Snapshot().State)
}

func TestSlotKeepPreviousHoldsDataWhileLoadingAndAfterFailure(t *testing.T) {
	var slot Slot[[]int]
	slot.KeepPrevious()
	_, err := slot.Run(context.Background(), func(context.Context) ([]int, error) {
		return []int{1, 2}, nil
	}, nil)
	require.NoError(t, err)

	_, ticket := slot.Begin(context.Background())
	loading := slot.Snapshot()
	assert.True(t, loading.IsLoading())
	assert.True(t, loading.HasData)
	assert.Equal(t, []int{1, 2}, loading.Data)

	slot.Fail(ticket, "Failed to load")
	failed := slot.Snapshot()
	assert.True(t, failed.IsError())
	assert.Equal(t, "Failed to load", failed.Message)
	assert.Equal(t, []int{1, 2}, failed.Data)

	slot.Dismiss()
	assert.Equal(t, StateSuccess, slot.Snapshot().State)
}

func TestSlotRunDescribesErrors(t *testing.T) {
	var slot Slot[int]
	boom := errors.New("boom")
	result, err := slot.Run(context.Background(), func(context.Context) (int, error) {
		return 0, boom
	}, func(error) string { return "Prediction failed" })

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateError, result.State)
	assert.Equal(t, "Prediction failed", result.Message)
	assert.False(t, result.HasData)

	slot.Dismiss()
	assert.Equal(t, StateIdle, slot.Snapshot().State)
}

func TestSlotResetInvalidatesInFlight(t *testing.T) {
	var slot Slot[int]
	ctx, ticket := slot.Begin(context.Background())
	slot.Reset()

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.False(t, slot.Resolve(ticket, 9))
	assert.Equal(t, StateIdle, slot.Snapshot().State)
}
