package controller

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginCancelsPrevious(t *testing.T) {
	c := New()
	first := c.Begin(context.Background(), "a")
	second := c.Begin(context.Background(), "b")

	require.Error(t, first.Err(), "first pipeline should be cancelled")
	assert.ErrorIs(t, first.Err(), context.Canceled)
	assert.NoError(t, second.Err())
	assert.False(t, c.IsActive("a"))
	assert.True(t, c.IsActive("b"))
}

func TestCommitOnlyWhileActive(t *testing.T) {
	c := New()
	c.Begin(context.Background(), "a")
	c.Begin(context.Background(), "b")

	ran := false
	assert.False(t, c.Commit("a", func() { ran = true }))
	assert.False(t, ran, "stale pipeline must not commit")

	assert.True(t, c.Commit("b", func() { ran = true }))
	assert.True(t, ran)
}

func TestEndReleasesOnlyOwner(t *testing.T) {
	c := New()
	c.Begin(context.Background(), "a")
	ctxB := c.Begin(context.Background(), "b")

	c.End("a")
	assert.True(t, c.IsActive("b"), "ending a superseded id must not touch the active one")
	assert.NoError(t, ctxB.Err())

	c.End("b")
	assert.Equal(t, "", c.Active())
	assert.ErrorIs(t, ctxB.Err(), context.Canceled)
}

func TestParentCancellationPropagates(t *testing.T) {
	c := New()
	parent, cancel := context.WithCancel(context.Background())
	ctx := c.Begin(parent, "a")
	cancel()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestClose(t *testing.T) {
	c := New()
	ctx := c.Begin(context.Background(), "a")
	c.Close()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	late := c.Begin(context.Background(), "b")
	assert.ErrorIs(t, late.Err(), context.Canceled)
	assert.False(t, c.IsActive("b"))
}

func TestConcurrentBeginLeavesOneActive(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	ctxs := make([]context.Context, 50)
	for i := range ctxs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctxs[i] = c.Begin(context.Background(), fmt.Sprintf("req-%d", i))
		}(i)
	}
	wg.Wait()

	live := 0
	for _, ctx := range ctxs {
		if ctx.Err() == nil {
			live++
		}
	}
	assert.Equal(t, 1, live, "exactly one pipeline context should remain live")
	assert.NotEmpty(t, c.Active())
}
