package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	c1 := NewClient(nil, "A")
	req.Nil(registry.Register("A", c1))

	got, ok := registry.Lookup("A")
	req.True(ok)
	req.Same(c1, got)

	_, ok = registry.Lookup("B")
	req.False(ok)
}

func TestRegistryRegisterReplacesPriorConnection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	c1 := NewClient(nil, "A")
	c2 := NewClient(nil, "A")

	req.Nil(registry.Register("A", c1))

	replaced := registry.Register("A", c2)
	req.Same(c1, replaced)

	got, ok := registry.Lookup("A")
	req.True(ok)
	req.Same(c2, got)
	req.Equal(1, registry.Len())
}

func TestRegistryUnregisterIsGuardedByInstance(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	c1 := NewClient(nil, "A")
	c2 := NewClient(nil, "A")

	registry.Register("A", c1)
	registry.Register("A", c2)

	// A disconnect callback from the replaced connection must not evict
	// the newer one.
	req.False(registry.Unregister("A", c1))

	got, ok := registry.Lookup("A")
	req.True(ok)
	req.Same(c2, got)

	req.True(registry.Unregister("A", c2))
	_, ok = registry.Lookup("A")
	req.False(ok)

	// Unregistering an unknown user is a no-op.
	req.False(registry.Unregister("A", c2))
}

func TestRegistrySnapshotTracksMostRecentState(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	req.Empty(registry.SnapshotUserIDs())

	a := NewClient(nil, "A")
	b := NewClient(nil, "B")

	registry.Register("A", a)
	registry.Register("B", b)
	req.ElementsMatch([]string{"A", "B"}, registry.SnapshotUserIDs())

	registry.Unregister("B", b)
	req.ElementsMatch([]string{"A"}, registry.SnapshotUserIDs())

	// A replacement keeps the user present in the snapshot.
	a2 := NewClient(nil, "A")
	registry.Register("A", a2)
	req.ElementsMatch([]string{"A"}, registry.SnapshotUserIDs())

	// The stale unregister does not remove the user.
	registry.Unregister("A", a)
	req.ElementsMatch([]string{"A"}, registry.SnapshotUserIDs())
}
