package pipeline

import (
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/go-kfp/internal/store"
)

// dag tracks the dependencies between the steps of a pipeline.
type dag struct {
	store *store.OrderedStore[string, *Step]
	graph graph.Graph[string, *Step]
}

func stepHash(s *Step) string {
	return s.Name()
}

func newDAG() *dag {
	st := store.NewOrderedStore[string, *Step]()

	return &dag{
		store: st,
		graph: graph.NewWithStore(stepHash, st, graph.Directed(), graph.PreventCycles()),
	}
}

func (d *dag) addStep(step *Step) error {
	err := d.graph.AddVertex(step, graph.VertexAttribute("image", step.Image()))
	if err != nil {
		return errors.Wrapf(err, "unable to add step %s", step.Name())
	}

	return nil
}

func (d *dag) addLink(parentName, childName string, outputs []string) error {
	err := d.graph.AddEdge(parentName, childName, graph.EdgeAttribute("label", strings.Join(outputs, ",")))
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childName)
	}

	return nil
}

// order returns the step names in a topological order which keeps declaration
// order between independent steps.
func (d *dag) order(index map[string]int) ([]string, error) {
	names, err := graph.StableTopologicalSort(d.graph, func(a, b string) bool {
		return index[a] < index[b]
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to sort steps")
	}

	return names, nil
}

// parents returns the names of the steps name reads from, in declaration order.
func (d *dag) parents(name string, index map[string]int) ([]string, error) {
	predecessors, err := d.graph.PredecessorMap()
	if err != nil {
		return nil, errors.Wrap(err, "unable to get predecessors")
	}

	res := make([]string, 0, len(predecessors[name]))
	for parent := range predecessors[name] {
		res = append(res, parent)
	}

	sortByIndex(res, index)

	return res, nil
}

func sortByIndex(names []string, index map[string]int) {
	sort.Slice(names, func(i, j int) bool {
		return index[names[i]] < index[names[j]]
	})
}
