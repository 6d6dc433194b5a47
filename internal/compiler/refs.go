package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/jpqlc/internal/ir"
)

// ReferenceCycle describes fragments that reference each other in a loop.
//
// Unlike rule cycles elsewhere, reference cycles are always errors: inlining
// them would never terminate.
type ReferenceCycle struct {
	Path    []string `json:"path"`    // Cycle path: ["a", "b", "a"]
	Message string   `json:"message"` // Human-readable description
}

// refGraph maps fragment name → fragment names it references.
type refGraph map[string][]string

// AnalyzeReferences detects reference cycles between fragments.
//
// The algorithm:
//  1. Build fragment → referenced fragment graph from ref nodes
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-reference as a cycle
//
// References to unknown fragments are ignored here; ResolveReferences
// reports them. Fragments without cycles yield an empty list.
func AnalyzeReferences(frags []ir.Fragment) []ReferenceCycle {
	graph := buildRefGraph(frags)

	var cycles []ReferenceCycle
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			cycles = append(cycles, sccToCycle(scc, graph))
		}
	}
	return cycles
}

func buildRefGraph(frags []ir.Fragment) refGraph {
	graph := make(refGraph, len(frags))
	known := make(map[string]bool, len(frags))
	for _, f := range frags {
		known[f.Name] = true
	}
	for _, f := range frags {
		edges := []string{}
		collectRefs(f.Tree, func(name string) {
			if known[name] && !slices.Contains(edges, name) {
				edges = append(edges, name)
			}
		})
		graph[f.Name] = edges
	}
	return graph
}

// collectRefs calls fn for every ref node in the tree, depth first.
func collectRefs(n *ir.Node, fn func(name string)) {
	if n == nil {
		return
	}
	if n.Kind == ir.KindRef {
		fn(n.Name)
		return
	}
	for _, child := range []*ir.Node{n.Left, n.Right, n.Path, n.Target, n.Inner} {
		collectRefs(child, fn)
	}
	for _, child := range n.Args {
		collectRefs(child, fn)
	}
	for _, child := range n.Items {
		collectRefs(child, fn)
	}
}

func hasSelfLoop(node string, graph refGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so results are deterministic.
func tarjanSCC(graph refGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is the root of an SCC; pop it.
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// sccToCycle converts an SCC into a ReferenceCycle starting at its
// alphabetically first member.
func sccToCycle(scc []string, graph refGraph) ReferenceCycle {
	if len(scc) == 1 {
		name := scc[0]
		return ReferenceCycle{
			Path:    []string{name, name},
			Message: fmt.Sprintf("fragment references itself: %s → %s", name, name),
		}
	}

	path := reconstructCyclePath(scc, graph)
	return ReferenceCycle{
		Path:    path,
		Message: fmt.Sprintf("fragment reference cycle: %s", strings.Join(path, " → ")),
	}
}

// reconstructCyclePath follows edges inside the SCC from its first member
// until it returns to the start.
func reconstructCyclePath(scc []string, graph refGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := slices.Min(scc)
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}

// ResolveReferences returns copies of frags with every ref node replaced by
// the referenced fragment's (resolved) tree. The input is not modified.
//
// Fails on the first reference cycle or unknown reference.
func ResolveReferences(frags []ir.Fragment) ([]ir.Fragment, error) {
	if cycles := AnalyzeReferences(frags); len(cycles) > 0 {
		return nil, &CompileError{Field: "ref", Message: cycles[0].Message}
	}

	r := newResolver(frags)
	out := make([]ir.Fragment, 0, len(frags))
	for _, f := range frags {
		tree := r.inline(f.Name, f.Tree)
		if len(r.errs) > 0 {
			return nil, r.errs[0]
		}
		out = append(out, ir.Fragment{Name: f.Name, Tree: tree})
	}
	return out, nil
}

type resolver struct {
	byName map[string]*ir.Node
	errs   []*CompileError
}

func newResolver(frags []ir.Fragment) *resolver {
	byName := make(map[string]*ir.Node, len(frags))
	for _, f := range frags {
		byName[f.Name] = f.Tree
	}
	return &resolver{byName: byName}
}

// inline deep-copies n, substituting references. Callers must have ruled
// out cycles.
func (r *resolver) inline(owner string, n *ir.Node) *ir.Node {
	if n == nil {
		return nil
	}
	if n.Kind == ir.KindRef {
		target, ok := r.byName[n.Name]
		if !ok {
			r.errs = append(r.errs, &CompileError{
				Field:   "fragment." + owner,
				Message: fmt.Sprintf("unknown fragment reference %q", n.Name),
			})
			return nil
		}
		return r.inline(n.Name, target)
	}

	c := *n
	c.Left = r.inline(owner, n.Left)
	c.Right = r.inline(owner, n.Right)
	c.Path = r.inline(owner, n.Path)
	c.Target = r.inline(owner, n.Target)
	c.Inner = r.inline(owner, n.Inner)
	c.Args = r.inlineList(owner, n.Args)
	c.Items = r.inlineList(owner, n.Items)
	if n.Position != nil {
		c.Position = ir.IntPtr(*n.Position)
	}
	return &c
}

func (r *resolver) inlineList(owner string, list []*ir.Node) []*ir.Node {
	if list == nil {
		return nil
	}
	out := make([]*ir.Node, len(list))
	for i, n := range list {
		out[i] = r.inline(owner, n)
	}
	return out
}
