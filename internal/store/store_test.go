package store_test

import (
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-kfp/internal/store"
)

func newGraph(t *testing.T, st *store.OrderedStore[string, string]) graph.Graph[string, string] {
	t.Helper()

	return graph.NewWithStore(graph.StringHash, st, graph.Directed(), graph.PreventCycles())
}

func TestOrderedStoreKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	st := store.NewOrderedStore[string, string]()
	gra := newGraph(t, st)

	for _, name := range []string{"preprocess", "hypertrain", "traintuned", "deploycmle", "deployapp"} {
		require.NoError(t, gra.AddVertex(name))
	}
	require.NoError(t, gra.AddEdge("preprocess", "hypertrain"))
	require.NoError(t, gra.AddEdge("hypertrain", "traintuned"))

	vertices, err := st.ListVertices()
	require.NoError(t, err)
	assert.Equal(t, []string{"preprocess", "hypertrain", "traintuned", "deploycmle", "deployapp"}, vertices)

	edges, err := st.ListEdges()
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, "preprocess", edges[0].Source)
	assert.Equal(t, "traintuned", edges[1].Target)
}

func TestOrderedStorePreventsCycles(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		source, target string
		cycle          bool
	}{
		"self loop":      {source: "a", target: "a", cycle: true},
		"back edge":      {source: "c", target: "a", cycle: true},
		"forward edge":   {source: "a", target: "c", cycle: false},
		"parallel chain": {source: "b", target: "c", cycle: false},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			st := store.NewOrderedStore[string, string]()
			gra := newGraph(t, st)
			require.NoError(t, gra.AddVertex("a"))
			require.NoError(t, gra.AddVertex("b"))
			require.NoError(t, gra.AddVertex("c"))
			require.NoError(t, gra.AddEdge("a", "b"))
			require.NoError(t, gra.AddEdge("b", "c"))

			cycle, err := st.CreatesCycle(tc.source, tc.target)
			require.NoError(t, err)
			assert.Equal(t, tc.cycle, cycle)
		})
	}
}

func TestOrderedStoreCreatesCycleUnknownVertex(t *testing.T) {
	t.Parallel()

	st := store.NewOrderedStore[string, string]()
	_, err := st.CreatesCycle("missing", "other")
	assert.ErrorIs(t, err, graph.ErrVertexNotFound)
}

func TestOrderedStoreRemoveVertex(t *testing.T) {
	t.Parallel()

	st := store.NewOrderedStore[string, string]()
	gra := newGraph(t, st)
	require.NoError(t, gra.AddVertex("a"))
	require.NoError(t, gra.AddVertex("b"))
	require.NoError(t, gra.AddEdge("a", "b"))

	assert.ErrorIs(t, st.RemoveVertex("a"), graph.ErrVertexHasEdges)
	require.NoError(t, st.RemoveEdge("a", "b"))
	require.NoError(t, st.RemoveVertex("a"))

	vertices, err := st.ListVertices()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, vertices)
	assert.ErrorIs(t, st.RemoveVertex("a"), graph.ErrVertexNotFound)
}
