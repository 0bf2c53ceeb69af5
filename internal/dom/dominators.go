// Package dom computes dominator relations and natural loops over a CFG
// built by internal/cfg.
package dom

import "bril/internal/cfg"

// Dominators holds, for every reachable node, the set of node names that
// dominate it (the node itself is always a member of its own set).
type Dominators struct {
	order []string            // reverse-postorder node names, as computed
	sets  map[string]map[string]bool
}

// Dominates reports whether d dominates n (d == n counts).
func (ds *Dominators) Dominates(d, n string) bool {
	set, ok := ds.sets[n]
	return ok && set[d]
}

// Set returns the dominator set of n as a fresh map the caller may hold
// onto and mutate freely.
func (ds *Dominators) Set(n string) map[string]bool {
	out := make(map[string]bool, len(ds.sets[n]))
	for k := range ds.sets[n] {
		out[k] = true
	}
	return out
}

// ReversePostorder returns the reverse-postorder node-name list computed
// during Compute.
func (ds *Dominators) ReversePostorder() []string {
	out := make([]string, len(ds.order))
	copy(out, ds.order)
	return out
}

// Compute implements §4.3: reverse-postorder iteration to a fixpoint.
func Compute(g *cfg.Graph) *Dominators {
	rpo := reversePostorder(g)
	reachable := make(map[string]bool, len(rpo))
	for _, name := range rpo {
		reachable[name] = true
	}

	sets := make(map[string]map[string]bool, len(rpo))
	entryName := g.Entry.Name
	for _, name := range rpo {
		if name == entryName {
			sets[name] = map[string]bool{entryName: true}
			continue
		}
		full := make(map[string]bool, len(rpo))
		for _, m := range rpo {
			full[m] = true
		}
		sets[name] = full
	}

	byName := make(map[string]*cfg.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byName[n.Name] = n
	}

	changed := true
	for changed {
		changed = false
		for _, name := range rpo {
			if name == entryName {
				continue
			}
			n := byName[name]
			var merged map[string]bool
			for _, p := range n.Predecessors() {
				if !reachable[p.Name] {
					continue
				}
				if merged == nil {
					merged = make(map[string]bool, len(sets[p.Name]))
					for k := range sets[p.Name] {
						merged[k] = true
					}
					continue
				}
				for k := range merged {
					if !sets[p.Name][k] {
						delete(merged, k)
					}
				}
			}
			if merged == nil {
				merged = map[string]bool{}
			}
			merged[name] = true

			if !setsEqual(merged, sets[name]) {
				sets[name] = merged
				changed = true
			}
		}
	}

	return &Dominators{order: rpo, sets: sets}
}

func setsEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// reversePostorder runs a DFS over successors from g.Entry and returns
// reachable node names in reverse-postorder.
func reversePostorder(g *cfg.Graph) []string {
	visited := map[string]bool{}
	var post []string

	var visit func(n *cfg.Node)
	visit = func(n *cfg.Node) {
		if visited[n.Name] {
			return
		}
		visited[n.Name] = true
		for _, s := range n.Successors() {
			visit(s)
		}
		post = append(post, n.Name)
	}
	visit(g.Entry)

	rpo := make([]string, len(post))
	for i, name := range post {
		rpo[len(post)-1-i] = name
	}
	return rpo
}
