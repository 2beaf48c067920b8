package canvas

import (
	"sort"

	"github.com/b0ase/cashboard/model"
)

// Adjacency maps each node to its outgoing targets in edge order.
func (c *Controller) Adjacency() map[model.ID][]model.ID {
	out := make(map[model.ID][]model.ID, len(c.nodes))
	for _, n := range c.nodes {
		out[n.ID] = nil
	}
	for _, e := range c.edges {
		out[e.Source] = append(out[e.Source], e.Target)
	}
	return out
}

// Neighbors lists the distinct nodes sharing an edge with id, sorted.
func (c *Controller) Neighbors(id model.ID) []model.ID {
	seen := map[model.ID]bool{}
	for _, e := range c.edges {
		switch id {
		case e.Source:
			seen[e.Target] = true
		case e.Target:
			seen[e.Source] = true
		}
	}
	out := make([]model.ID, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Incident returns the edges touching id.
func (c *Controller) Incident(id model.ID) []model.Edge {
	var out []model.Edge
	for _, e := range c.edges {
		if e.Source == id || e.Target == id {
			out = append(out, e)
		}
	}
	return out
}

// Order lists nodes in flow order (Kahn). Ties go by node order on the
// canvas. Nodes caught in a cycle are appended last, in canvas order.
func (c *Controller) Order() []model.ID {
	pos := make(map[model.ID]int, len(c.nodes))
	indeg := make(map[model.ID]int, len(c.nodes))
	for i, n := range c.nodes {
		pos[n.ID] = i
		indeg[n.ID] = 0
	}
	out := map[model.ID][]model.ID{}
	for _, e := range c.edges {
		if _, ok := indeg[e.Target]; !ok {
			continue
		}
		if _, ok := indeg[e.Source]; !ok {
			continue
		}
		out[e.Source] = append(out[e.Source], e.Target)
		indeg[e.Target]++
	}

	var q []model.ID
	for _, n := range c.nodes {
		if indeg[n.ID] == 0 {
			q = append(q, n.ID)
		}
	}
	order := make([]model.ID, 0, len(c.nodes))
	done := map[model.ID]bool{}
	for len(q) > 0 {
		v := q[0]
		q = q[1:]
		if done[v] {
			continue
		}
		order = append(order, v)
		done[v] = true
		var ready []model.ID
		for _, u := range out[v] {
			indeg[u]--
			if indeg[u] == 0 {
				ready = append(ready, u)
			}
		}
		sort.Slice(ready, func(i, j int) bool { return pos[ready[i]] < pos[ready[j]] })
		q = append(q, ready...)
	}
	for _, n := range c.nodes {
		if !done[n.ID] {
			done[n.ID] = true
			order = append(order, n.ID)
		}
	}
	return order
}
