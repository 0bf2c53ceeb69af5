package dom

import "bril/internal/cfg"

// Loop is one natural loop: a header dominating a tail via a back edge,
// and the body set of nodes that can reach the tail without passing back
// through the header (spec §4.4).
type Loop struct {
	Header string
	Tail   string
	Body   map[string]bool
}

// BackEdge is an edge a -> b where b dominates a.
type BackEdge struct {
	From string
	To   string
}

// BackEdges scans every CFG edge in node/successor order and reports the
// ones that are back edges under ds.
func BackEdges(g *cfg.Graph, ds *Dominators) []BackEdge {
	var edges []BackEdge
	for _, n := range g.Nodes {
		for _, s := range n.Successors() {
			if ds.Dominates(s.Name, n.Name) {
				edges = append(edges, BackEdge{From: n.Name, To: s.Name})
			}
		}
	}
	return edges
}

// FindLoops discovers one Loop record per back edge, in back-edge
// discovery order, performing no merging when two back edges share a
// header (spec §4.4).
func FindLoops(g *cfg.Graph, ds *Dominators) []Loop {
	byName := make(map[string]*cfg.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byName[n.Name] = n
	}

	var loops []Loop
	for _, be := range BackEdges(g, ds) {
		header, tail := be.To, be.From
		body := map[string]bool{header: true, tail: true}
		queue := []string{tail}
		for len(queue) > 0 {
			name := queue[0]
			queue = queue[1:]
			if name == header {
				continue
			}
			for _, p := range byName[name].Predecessors() {
				if !body[p.Name] {
					body[p.Name] = true
					queue = append(queue, p.Name)
				}
			}
		}
		loops = append(loops, Loop{Header: header, Tail: tail, Body: body})
	}
	return loops
}
