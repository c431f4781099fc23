// Package depgraph builds the whole-program graph of type definitions and
// answers the two questions rendering needs: which references are recursive
// (and must be constructed lazily) and which recursions are malformed.
package depgraph

import (
	"strings"

	"github.com/okra-platform/movegen/internal/errors"
	"github.com/okra-platform/movegen/internal/schema"
)

// Graph is an immutable view of type dependencies for one run.
type Graph struct {
	idx   *schema.Index
	nodes []schema.TypeID
	// all references, guarded or not
	edges map[schema.TypeID][]schema.TypeID
	// references that are constructed eagerly inside a value
	unguarded map[schema.TypeID][]schema.TypeID
	component map[schema.TypeID]int
	sizes     []int
	cycles    []Cycle

	paramMemo map[schema.TypeID]map[int]bool
	paramBusy map[schema.TypeID]bool
}

// Build indexes every type definition of every package in idx.
func Build(idx *schema.Index) *Graph {
	g := &Graph{
		idx:       idx,
		edges:     make(map[schema.TypeID][]schema.TypeID),
		unguarded: make(map[schema.TypeID][]schema.TypeID),
		component: make(map[schema.TypeID]int),
		paramMemo: make(map[schema.TypeID]map[int]bool),
		paramBusy: make(map[schema.TypeID]bool),
	}
	for _, pkg := range idx.Packages() {
		for _, m := range pkg.Modules {
			for _, def := range m.Types {
				id := schema.TypeID{Module: m.ID(), Name: def.Name}
				g.nodes = append(g.nodes, id)
				g.collectDef(id, def)
			}
		}
	}
	g.strongComponents()
	g.findCycles()
	return g
}

func (g *Graph) collectDef(id schema.TypeID, def *schema.TypeDef) {
	switch def.Kind {
	case schema.KindStruct:
		for _, f := range def.Fields {
			g.collect(id, f.Type, false)
		}
	case schema.KindEnum:
		// with more than one variant a value can always pick another one
		guarded := len(def.Variants) > 1
		for _, v := range def.Variants {
			for _, p := range v.Payload {
				g.collect(id, p, guarded)
			}
		}
	}
}

func (g *Graph) collect(from schema.TypeID, ref schema.TypeRef, guarded bool) {
	switch r := ref.(type) {
	case schema.Vector:
		g.collect(from, r.Elem, true)
	case schema.Option:
		g.collect(from, r.Elem, true)
	case schema.Tuple:
		for _, e := range r.Elems {
			g.collect(from, e, guarded)
		}
	case schema.Datatype:
		to := r.ID()
		g.edges[from] = appendUnique(g.edges[from], to)
		if !guarded {
			g.unguarded[from] = appendUnique(g.unguarded[from], to)
		}
		passes := g.unguardedParams(r)
		for i, a := range r.TypeArgs {
			g.collect(from, a, guarded || !passes[i])
		}
	}
}

// unguardedParams reports, per parameter position of the definition d refers
// to, whether an argument in that position ends up inside the value without
// an indirection.
func (g *Graph) unguardedParams(d schema.Datatype) map[int]bool {
	id := d.ID()
	if memo, ok := g.paramMemo[id]; ok {
		return memo
	}
	if g.paramBusy[id] {
		return nil
	}
	def, err := g.idx.Lookup(d)
	if err != nil || def == nil {
		return nil
	}
	g.paramBusy[id] = true
	defer delete(g.paramBusy, id)

	out := make(map[int]bool)
	var visit func(ref schema.TypeRef, guarded bool)
	visit = func(ref schema.TypeRef, guarded bool) {
		switch r := ref.(type) {
		case schema.TypeParam:
			if !guarded {
				out[r.Index] = true
			}
		case schema.Vector:
			visit(r.Elem, true)
		case schema.Option:
			visit(r.Elem, true)
		case schema.Tuple:
			for _, e := range r.Elems {
				visit(e, guarded)
			}
		case schema.Datatype:
			passes := g.unguardedParams(r)
			for i, a := range r.TypeArgs {
				visit(a, guarded || !passes[i])
			}
		}
	}
	switch def.Kind {
	case schema.KindStruct:
		for _, f := range def.Fields {
			visit(f.Type, false)
		}
	case schema.KindEnum:
		for _, v := range def.Variants {
			for _, p := range v.Payload {
				visit(p, len(def.Variants) > 1)
			}
		}
	}
	g.paramMemo[id] = out
	return out
}

// SameComponent reports whether a and b are mutually reachable, i.e. whether
// constructing one requires constructing the other. A type that refers to
// itself is in the same component as itself.
func (g *Graph) SameComponent(a, b schema.TypeID) bool {
	ca, ok := g.component[a]
	if !ok {
		return false
	}
	cb, ok := g.component[b]
	if !ok || ca != cb {
		return false
	}
	if a != b {
		return true
	}
	for _, to := range g.edges[a] {
		if to == a {
			return true
		}
	}
	return g.sizes[ca] > 1
}

// Dependencies returns the types id refers to, in first-reference order.
func (g *Graph) Dependencies(id schema.TypeID) []schema.TypeID {
	return g.edges[id]
}

// strongComponents labels every node with its strongly connected component
// (Tarjan).
func (g *Graph) strongComponents() {
	index := make(map[schema.TypeID]int)
	low := make(map[schema.TypeID]int)
	onStack := make(map[schema.TypeID]bool)
	var stack []schema.TypeID
	next, comp := 0, 0

	var connect func(v schema.TypeID)
	connect = func(v schema.TypeID) {
		index[v] = next
		low[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if _, seen := index[w]; !seen {
				connect(w)
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], index[w])
			}
		}

		if low[v] == index[v] {
			size := 0
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				g.component[w] = comp
				size++
				if w == v {
					break
				}
			}
			g.sizes = append(g.sizes, size)
			comp++
		}
	}

	for _, v := range g.nodes {
		if _, seen := index[v]; !seen {
			connect(v)
		}
	}
}

// Cycle is a chain of unguarded references that leads back to its start.
type Cycle struct {
	// Path starts and ends with the same type
	Path []schema.TypeID
}

func (c Cycle) String() string {
	parts := make([]string, len(c.Path))
	for i, id := range c.Path {
		parts[i] = id.String()
	}
	return strings.Join(parts, " -> ")
}

// Modules returns the distinct modules the cycle passes through.
func (c Cycle) Modules() []schema.ModuleID {
	var out []schema.ModuleID
	seen := make(map[schema.ModuleID]bool)
	for _, id := range c.Path {
		if !seen[id.Module] {
			seen[id.Module] = true
			out = append(out, id.Module)
		}
	}
	return out
}

// Err describes the cycle as an error marked ErrUnguardedCycle.
func (c Cycle) Err() error {
	err := errors.Newf("unguarded type cycle %s", c)
	err = errors.WithHint(err, "a recursive reference must sit inside a vector, an option or an enum with another variant")
	return errors.Mark(err, errors.ErrUnguardedCycle)
}

// Cycles returns every malformed recursion, in declaration order of the
// type where it was first found.
func (g *Graph) Cycles() []Cycle {
	return g.cycles
}

const (
	white = iota
	grey
	black
)

func (g *Graph) findCycles() {
	color := make(map[schema.TypeID]int)
	var path []schema.TypeID

	var visit func(v schema.TypeID)
	visit = func(v schema.TypeID) {
		color[v] = grey
		path = append(path, v)
		for _, w := range g.unguarded[v] {
			switch color[w] {
			case white:
				visit(w)
			case grey:
				start := 0
				for i, p := range path {
					if p == w {
						start = i
						break
					}
				}
				cycle := append([]schema.TypeID{}, path[start:]...)
				g.cycles = append(g.cycles, Cycle{Path: append(cycle, w)})
			}
		}
		path = path[:len(path)-1]
		color[v] = black
	}

	for _, v := range g.nodes {
		if color[v] == white {
			visit(v)
		}
	}
}

func appendUnique(ids []schema.TypeID, id schema.TypeID) []schema.TypeID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
