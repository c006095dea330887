// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package ldmask

import (
	"gopkg.in/check.v1"
)

type maskKNNSuite struct{}

var _ = check.Suite(&maskKNNSuite{})

func (s *maskKNNSuite) TestColumnwise(c *check.C) {
	keys := testKeys(100)
	recs := columnwiseMask(keys, 0.1, 42)
	c.Assert(recs, check.HasLen, 100)
	masked := 0
	for _, rec := range recs {
		if rec.Masked {
			masked++
		}
	}
	c.Check(masked, check.Equals, 10)

	again := columnwiseMask(keys, 0.1, 42)
	c.Check(recs, check.DeepEquals, again)
}

func (s *maskKNNSuite) TestKNNAllSeeds(c *check.C) {
	g := &neighborGraph{}
	g.addEdge("1_100", "1_200", 0.95)
	g.addEdge("1_100", "1_300", 0.85)
	g.sortNeighbors()
	keys := g.keys()

	recs := knnMask(keys, g, 1, 1.0, 42)
	c.Assert(recs, check.HasLen, 3)
	for _, rec := range recs {
		c.Check(rec.Masked, check.Equals, true)
		c.Check(rec.Seed, check.Equals, true)
	}
	c.Check(recs[0].Neighbors, check.Equals, 2)
	c.Check(recs[1].Neighbors, check.Equals, 1)
}

func (s *maskKNNSuite) TestKNNTopNeighborOnly(c *check.C) {
	// One seed with two neighbors at r2 0.95 and 0.85, k=1: only the
	// 0.95 neighbor is masked alongside the seed. The seed variant is
	// drawn at random, so scan seeds until 1_100 is the one chosen.
	g := &neighborGraph{}
	g.addEdge("1_100", "1_200", 0.95)
	g.addEdge("1_100", "1_300", 0.85)
	g.sortNeighbors()
	keys := g.keys()

	verified := false
	for seed := uint64(0); seed < 200 && !verified; seed++ {
		recs := knnMask(keys, g, 1, 0.34, seed)
		c.Assert(recs, check.HasLen, 3)
		if !recs[0].Seed {
			continue
		}
		c.Check(recs[0].Masked, check.Equals, true)  // the seed
		c.Check(recs[1].Masked, check.Equals, true)  // 1_200, r2 0.95
		c.Check(recs[2].Masked, check.Equals, false) // 1_300, r2 0.85
		verified = true
	}
	c.Check(verified, check.Equals, true)
}

func (s *maskKNNSuite) TestKNNOverlap(c *check.C) {
	// Masked set never exceeds seeds*(k+1).
	g := &neighborGraph{}
	keys := testKeys(50)
	for i := 0; i < len(keys)-1; i++ {
		g.addEdge(keys[i], keys[i+1], 0.9)
	}
	g.sortNeighbors()

	recs := knnMask(keys, g, 3, 0.2, 42)
	masked := 0
	seeds := 0
	for _, rec := range recs {
		if rec.Masked {
			masked++
		}
		if rec.Seed {
			seeds++
		}
	}
	c.Check(seeds, check.Equals, 10)
	c.Check(masked <= seeds*4, check.Equals, true)
	c.Check(masked >= seeds, check.Equals, true)
}
