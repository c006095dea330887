// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package ldmask

import (
	"sort"
)

type neighbor struct {
	Key string
	R2  float64
}

// neighborGraph is an undirected adjacency structure over variant
// keys, weighted by R². Neighbor lists are ordered by descending R²
// after sortNeighbors; ties keep insertion order, which makes top-k
// selection deterministic.
type neighborGraph struct {
	adj    map[string][]neighbor
	sorted bool
}

// addEdge inserts an undirected edge. Self-loops are ignored.
func (g *neighborGraph) addEdge(a, b string, r2 float64) {
	if a == b {
		return
	}
	if g.adj == nil {
		g.adj = map[string][]neighbor{}
	}
	g.adj[a] = append(g.adj[a], neighbor{Key: b, R2: r2})
	g.adj[b] = append(g.adj[b], neighbor{Key: a, R2: r2})
	g.sorted = false
}

// sortNeighbors orders every adjacency list by descending R²,
// breaking ties by insertion order.
func (g *neighborGraph) sortNeighbors() {
	for _, nbrs := range g.adj {
		sort.SliceStable(nbrs, func(i, j int) bool {
			return nbrs[i].R2 > nbrs[j].R2
		})
	}
	g.sorted = true
}

// topK returns up to k strongest neighbors of key. A key with no
// edges has no neighbors.
func (g *neighborGraph) topK(key string, k int) []neighbor {
	if !g.sorted {
		panic("bug: (*neighborGraph)topK() called before sortNeighbors()")
	}
	nbrs := g.adj[key]
	if len(nbrs) > k {
		nbrs = nbrs[:k]
	}
	return nbrs
}

func (g *neighborGraph) degree(key string) int {
	return len(g.adj[key])
}

// keys returns every variant with at least one edge, in genomic order.
func (g *neighborGraph) keys() []string {
	keys := make([]string, 0, len(g.adj))
	for k := range g.adj {
		keys = append(keys, k)
	}
	sortKeysGenomic(keys)
	return keys
}

func (g *neighborGraph) r2(a, b string) (float64, bool) {
	for _, n := range g.adj[a] {
		if n.Key == b {
			return n.R2, true
		}
	}
	return 0, false
}

// buildNeighborGraph streams f and accumulates every edge with
// R² >= minR2 into a neighbor graph, sorted and ready for top-k
// queries.
func buildNeighborGraph(f *ldFile, minR2 float64) (*neighborGraph, error) {
	g := &neighborGraph{}
	err := f.scanEdges(minR2, func(rec ldRecord) error {
		g.addEdge(rec.KeyA, rec.KeyB, rec.R2)
		return nil
	})
	if err != nil {
		return nil, err
	}
	g.sortNeighbors()
	return g, nil
}
