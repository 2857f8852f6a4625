package sessions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegistryGetOrCreate(t *testing.T) {
	r := NewRegistry[*int](time.Hour)
	calls := 0
	create := func() *int { calls++; v := calls; return &v }

	a := r.GetOrCreate("s1", create)
	b := r.GetOrCreate("s1", create)
	require.Same(t, a, b)
	require.Equal(t, 1, calls)

	c := r.GetOrCreate("s2", create)
	require.NotSame(t, a, c)
	require.Equal(t, 2, r.Len())

	got, ok := r.Get("s2")
	require.True(t, ok)
	require.Same(t, c, got)

	r.Delete("s2")
	_, ok = r.Get("s2")
	require.False(t, ok)
}

func TestRegistryExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRegistry[string](time.Minute)
	r.now = func() time.Time { return now }

	r.GetOrCreate("old", func() string { return "first" })
	r.GetOrCreate("other", func() string { return "x" })
	now = now.Add(2 * time.Minute)

	_, ok := r.Get("old")
	require.False(t, ok)
	require.Equal(t, "second", r.GetOrCreate("old", func() string { return "second" }))

	require.Equal(t, 1, r.Sweep())
	require.Equal(t, 1, r.Len())
}

func TestRegistryWithoutTTL(t *testing.T) {
	r := NewRegistry[int](0)
	r.GetOrCreate("a", func() int { return 7 })
	r.now = func() time.Time { return time.Now().Add(24 * 365 * time.Hour) }
	v, ok := r.Get("a")
	require.True(t, ok)
	require.Equal(t, 7, v)
}
