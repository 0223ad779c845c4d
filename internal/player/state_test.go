package player

import (
	"testing"

	"github.com/desertthunder/soundwave/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState(t *testing.T) {
	t.Run("starts empty", func(t *testing.T) {
		snap := NewState().Snapshot()
		assert.Nil(t, snap.CurrentTrack)
		assert.False(t, snap.IsPlaying)
		assert.False(t, snap.IsCollapsed)
		assert.Empty(t, snap.Queue)
	})

	t.Run("snapshots are copies", func(t *testing.T) {
		s := NewState()
		track := models.Track{ID: "t1", Name: "One"}
		s.Apply(&track, true)
		track.Name = "changed"

		snap := s.Snapshot()
		snap.CurrentTrack.Name = "mutated"
		assert.Equal(t, "One", s.Snapshot().CurrentTrack.Name)
	})

	t.Run("collapsed and queue", func(t *testing.T) {
		s := NewState()
		assert.True(t, s.ToggleCollapsed())
		assert.False(t, s.ToggleCollapsed())

		s.SetQueue([]models.Track{{ID: "a"}})
		s.AddToQueue(models.Track{ID: "b"})
		q := s.Snapshot().Queue
		require.Len(t, q, 2)
		assert.Equal(t, "b", q[1].ID)

		s.Reset()
		assert.Empty(t, s.Snapshot().Queue)
	})

	t.Run("subscribers get the latest snapshot without blocking writers", func(t *testing.T) {
		s := NewState()
		ch, unsubscribe := s.Subscribe(1)

		s.SetPlaying(true)
		s.SetPlaying(false)
		s.SetCollapsed(true)

		snap := <-ch
		assert.True(t, snap.IsPlaying, "only the first update fits the buffer")

		unsubscribe()
		unsubscribe()
		_, open := <-ch
		assert.False(t, open)

		s.SetPlaying(true)
	})
}
