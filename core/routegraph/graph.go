// Package routegraph offers a read-only shortest-route query over the
// transit network: a directed stop graph weighted by scheduled travel
// seconds, independent of the simulation core.
package routegraph

import (
	"container/heap"
	"fmt"
	"math"
)

// Edge is one directed stop-to-stop hop with its travel time in seconds.
type Edge struct {
	From    string
	To      string
	Seconds float64
}

// Graph is a directed transit graph keyed by stop id.
type Graph struct {
	adj map[string][]Edge
}

// New builds a graph from edges, dropping non-positive weights.
func New(edges []Edge) *Graph {
	g := &Graph{adj: make(map[string][]Edge)}
	for _, e := range edges {
		if e.Seconds <= 0 {
			continue
		}
		g.adj[e.From] = append(g.adj[e.From], e)
		if _, ok := g.adj[e.To]; !ok {
			g.adj[e.To] = nil
		}
	}
	return g
}

// Nodes returns the number of stops in the graph.
func (g *Graph) Nodes() int { return len(g.adj) }

// Find returns the fastest stop sequence from one stop to another and its
// total travel seconds. Unknown stops and unreachable pairs are errors.
func (g *Graph) Find(from, to string) ([]string, float64, error) {
	if _, ok := g.adj[from]; !ok {
		return nil, 0, fmt.Errorf("unknown stop %q", from)
	}
	if _, ok := g.adj[to]; !ok {
		return nil, 0, fmt.Errorf("unknown stop %q", to)
	}
	if from == to {
		return []string{from}, 0, nil
	}

	dist := map[string]float64{from: 0}
	prev := map[string]string{}
	visited := map[string]bool{}

	pq := &frontier{{stop: from, cost: 0}}
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(frontierItem)
		if visited[cur.stop] {
			continue
		}
		visited[cur.stop] = true
		if cur.stop == to {
			break
		}
		for _, e := range g.adj[cur.stop] {
			next := cur.cost + e.Seconds
			if d, seen := dist[e.To]; !seen || next < d {
				dist[e.To] = next
				prev[e.To] = cur.stop
				heap.Push(pq, frontierItem{stop: e.To, cost: next})
			}
		}
	}

	total, ok := dist[to]
	if !ok || math.IsInf(total, 1) {
		return nil, 0, fmt.Errorf("no route from %q to %q", from, to)
	}
	var path []string
	for at := to; ; {
		path = append([]string{at}, path...)
		if at == from {
			break
		}
		at = prev[at]
	}
	return path, total, nil
}

type frontierItem struct {
	stop string
	cost float64
}

// frontier is the Dijkstra priority queue.
type frontier []frontierItem

func (f frontier) Len() int            { return len(f) }
func (f frontier) Less(i, j int) bool  { return f[i].cost < f[j].cost }
func (f frontier) Swap(i, j int)       { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)         { *f = append(*f, x.(frontierItem)) }
func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	it := old[n-1]
	*f = old[:n-1]
	return it
}
