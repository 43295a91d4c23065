package diagnostics_test

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeforge/paragon/diagnostics"
	"github.com/latticeforge/paragon/tree"
)

func buildSampleTree(t *testing.T) *tree.Allocator[int] {
	t.Helper()
	alloc := tree.NewAllocator[int]()
	root := alloc.Node(alloc.Root())
	performed := root.ExpandIfNecessary(alloc, func() ([]tree.ActionProb[int], float32) {
		return []tree.ActionProb[int]{
			{Action: -1, Prior: 0.5},
			{Action: 1, Prior: 0.5},
		}, 0.25
	})
	require.True(t, performed)
	require.True(t, root.AccumulateStats(1, 0.8))
	return alloc
}

func decodeInt(s string) (int, error) { return strconv.Atoi(s) }

func TestSnapshotCapturesRootAndEdges(t *testing.T) {
	alloc := buildSampleTree(t)
	snap := diagnostics.Snapshot(alloc)

	assert.Equal(t, int64(alloc.Root()), snap.RootID)
	require.Len(t, snap.Nodes, 3) // root + two children

	var root *diagnostics.NodeSnapshot
	for i := range snap.Nodes {
		if snap.Nodes[i].ID == int64(alloc.Root()) {
			root = &snap.Nodes[i]
		}
	}
	require.NotNil(t, root)
	assert.True(t, root.Visited)
	assert.Equal(t, float32(0.25), root.Value)
	require.Len(t, root.Edges, 2)
}

func TestLoadSnapshotRoundTripsAllocatorState(t *testing.T) {
	alloc := buildSampleTree(t)
	snap := diagnostics.Snapshot(alloc)

	restored, err := diagnostics.LoadSnapshot[int](snap, decodeInt)
	require.NoError(t, err)

	assert.Equal(t, alloc.Root(), restored.Root())
	assert.Equal(t, alloc.Size(), restored.Size())

	origRoot := alloc.Node(alloc.Root())
	gotRoot := restored.Node(restored.Root())
	require.NotNil(t, gotRoot)
	assert.Equal(t, origRoot.Visited(), gotRoot.Visited())
	assert.Equal(t, origRoot.Value(), gotRoot.Value())

	origEdge, ok := origRoot.Edge(1)
	require.True(t, ok)
	gotEdge, ok := gotRoot.Edge(1)
	require.True(t, ok)
	assert.Equal(t, origEdge, gotEdge)
}

func TestDumpTreeWritesSnapshotAndDotFiles(t *testing.T) {
	alloc := buildSampleTree(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.yaml")

	require.NoError(t, diagnostics.DumpTree(alloc, path))
	assert.FileExists(t, path)
	assert.FileExists(t, path+".dot")
}
