package form

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lovenotes/anniversary/internal/assets"
)

func TestPendingStageReplacesAndDiscard(t *testing.T) {
	p := NewPendingUploads()
	p.Stage("hero-scroll-1", assets.Payload{Name: "a.png", Data: []byte("a")})
	p.Stage("hero-scroll-1", assets.Payload{Name: "b.png", Data: []byte("b")})
	require.Equal(t, 1, p.Len())

	payload, ok := p.Snapshot().Payload("hero-scroll-1")
	require.True(t, ok)
	require.Equal(t, "b.png", payload.Name)

	p.Discard("hero-scroll-1")
	require.False(t, p.Has("hero-scroll-1"))
	require.Zero(t, p.Len())
}

func TestConsumeKeepsEntriesStagedAfterSnapshot(t *testing.T) {
	p := NewPendingUploads()
	p.Stage("memory-1-img", assets.Payload{Name: "old.png"})
	p.Stage("memory-2-img", assets.Payload{Name: "two.png"})
	snap := p.Snapshot()

	p.Stage("memory-1-img", assets.Payload{Name: "new.png"})
	p.Consume(snap)

	require.ElementsMatch(t, []string{"memory-1-img"}, p.Fields())
	payload, _ := p.Snapshot().Payload("memory-1-img")
	require.Equal(t, "new.png", payload.Name)
}
