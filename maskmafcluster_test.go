// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package ldmask

import (
	"gopkg.in/check.v1"
)

type mafClusterSuite struct{}

var _ = check.Suite(&mafClusterSuite{})

func blockGraph(blocks [][]string) *neighborGraph {
	g := &neighborGraph{}
	for _, block := range blocks {
		for i := 0; i < len(block); i++ {
			for j := i + 1; j < len(block); j++ {
				g.addEdge(block[i], block[j], 0.95)
			}
		}
	}
	g.sortNeighbors()
	return g
}

func (s *mafClusterSuite) TestMaskFields(c *check.C) {
	g := blockGraph([][]string{
		{"1_100", "1_110", "1_120", "1_130"},
		{"1_900", "1_910", "1_920", "1_930"},
		{"2_100", "2_110", "2_120", "2_130"},
	})
	keys := g.keys()
	recs := mafClusterMask(keys, g, 0.1, 0.05, 3, 42)
	c.Assert(recs, check.HasLen, len(keys))

	clusterSizes := map[int]int{}
	for i, rec := range recs {
		c.Check(rec.Key, check.Equals, keys[i])
		c.Check(rec.MAF >= 0 && rec.MAF <= 0.5, check.Equals, true)
		c.Check(rec.Rare, check.Equals, rec.MAF < 0.05)
		if rec.ClusterID >= 0 {
			clusterSizes[rec.ClusterID]++
		}
	}
	// Valid clusters only: every reported cluster has at least
	// cluster-size-min members.
	for _, size := range clusterSizes {
		c.Check(size >= 3, check.Equals, true)
	}

	// Channel B masks at least one whole cluster.
	maskedByCluster := map[int]int{}
	for _, rec := range recs {
		if rec.Masked && rec.ClusterID >= 0 {
			maskedByCluster[rec.ClusterID]++
		}
	}
	whole := false
	for id, n := range maskedByCluster {
		if n == clusterSizes[id] {
			whole = true
		}
	}
	c.Check(whole, check.Equals, true)
}

func (s *mafClusterSuite) TestDeterminism(c *check.C) {
	g := blockGraph([][]string{
		{"1_100", "1_110", "1_120"},
		{"1_900", "1_910", "1_920"},
	})
	keys := g.keys()
	a := mafClusterMask(keys, g, 0.2, 0.05, 3, 42)
	b := mafClusterMask(keys, g, 0.2, 0.05, 3, 42)
	c.Check(a, check.DeepEquals, b)
}

func (s *mafClusterSuite) TestEmptyGraph(c *check.C) {
	g := &neighborGraph{}
	g.sortNeighbors()
	recs := mafClusterMask(nil, g, 0.1, 0.05, 3, 42)
	c.Check(recs, check.HasLen, 0)
}

func (s *mafClusterSuite) TestSingletonClustersDropped(c *check.C) {
	// Two connected pairs: with cluster-size-min 3 no cluster is
	// valid, so every ClusterID is -1 and channel B masks nothing.
	g := blockGraph([][]string{
		{"1_100", "1_110"},
		{"1_900", "1_910"},
	})
	keys := g.keys()
	recs := mafClusterMask(keys, g, 0.1, 0.05, 3, 42)
	for _, rec := range recs {
		c.Check(rec.ClusterID, check.Equals, -1)
	}
}
