// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package ldmask

import (
	"gonum.org/v1/gonum/mat"
)

// ldDistanceMatrix builds the dense LD distance matrix over keys:
// 0 on the diagonal, 1-r2 where an edge exists in g, and 1 (maximum
// distance) for unconnected pairs. Treating unknown pairs as
// maximally dissimilar keeps unrelated variants out of each other's
// clusters.
func ldDistanceMatrix(keys []string, g *neighborGraph) *mat.SymDense {
	n := len(keys)
	if n == 0 {
		return &mat.SymDense{}
	}
	idx := make(map[string]int, n)
	for i, key := range keys {
		idx[key] = i
	}
	data := make([]float64, n*n)
	for i := range data {
		data[i] = 1
	}
	dist := mat.NewSymDense(n, data)
	for i := 0; i < n; i++ {
		dist.SetSym(i, i, 0)
	}
	for i, key := range keys {
		for _, nbr := range g.adj[key] {
			if j, ok := idx[nbr.Key]; ok {
				dist.SetSym(i, j, 1-nbr.R2)
			}
		}
	}
	return dist
}

// clusterCount is the adaptive cluster target for n variants.
func clusterCount(n int) int {
	if n/10 < 2 {
		return 2
	}
	return n / 10
}

// clusterVariants runs average-linkage agglomerative clustering on a
// precomputed distance matrix until nClusters remain, and returns
// cluster label -> member keys. Labels are dense and deterministic
// for a fixed key ordering. Degenerate inputs (n <= nClusters) come
// back as singleton clusters.
func clusterVariants(keys []string, dist *mat.SymDense, nClusters int) map[int][]string {
	n := len(keys)
	clusters := map[int][]string{}
	if n == 0 {
		return clusters
	}
	if nClusters < 1 {
		nClusters = 1
	}

	// Working copy of the distance matrix, updated in place with the
	// Lance-Williams average-linkage recurrence as clusters merge.
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
		for j := range d[i] {
			d[i][j] = dist.At(i, j)
		}
	}
	members := make([][]int, n)
	active := make([]bool, n)
	remaining := n
	for i := range members {
		members[i] = []int{i}
		active[i] = true
	}

	for remaining > nClusters {
		// Closest active pair; first hit wins on ties.
		bi, bj, best := -1, -1, 0.0
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !active[j] {
					continue
				}
				if bi < 0 || d[i][j] < best {
					bi, bj, best = i, j, d[i][j]
				}
			}
		}
		if bi < 0 {
			break
		}
		ni := float64(len(members[bi]))
		nj := float64(len(members[bj]))
		for k := 0; k < n; k++ {
			if !active[k] || k == bi || k == bj {
				continue
			}
			avg := (ni*d[bi][k] + nj*d[bj][k]) / (ni + nj)
			d[bi][k] = avg
			d[k][bi] = avg
		}
		members[bi] = append(members[bi], members[bj]...)
		members[bj] = nil
		active[bj] = false
		remaining--
	}

	label := 0
	for i := 0; i < n; i++ {
		if !active[i] {
			continue
		}
		ks := make([]string, 0, len(members[i]))
		for _, m := range members[i] {
			ks = append(ks, keys[m])
		}
		sortKeysGenomic(ks)
		clusters[label] = ks
		label++
	}
	return clusters
}

// validClusters drops clusters smaller than minSize and returns the
// survivors' labels in ascending order alongside the filtered map.
func validClusters(clusters map[int][]string, minSize int) ([]int, map[int][]string) {
	var labels []int
	valid := map[int][]string{}
	for label := 0; label < len(clusters); label++ {
		members, ok := clusters[label]
		if !ok || len(members) < minSize {
			continue
		}
		labels = append(labels, label)
		valid[label] = members
	}
	return labels, valid
}
