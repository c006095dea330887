// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package ldmask

import (
	"gopkg.in/check.v1"
)

type graphSuite struct{}

var _ = check.Suite(&graphSuite{})

func (s *graphSuite) TestSymmetry(c *check.C) {
	g := &neighborGraph{}
	g.addEdge("1_100", "1_200", 0.9)
	g.sortNeighbors()

	r2, ok := g.r2("1_100", "1_200")
	c.Check(ok, check.Equals, true)
	c.Check(r2, check.Equals, 0.9)
	r2, ok = g.r2("1_200", "1_100")
	c.Check(ok, check.Equals, true)
	c.Check(r2, check.Equals, 0.9)
}

func (s *graphSuite) TestSelfLoopIgnored(c *check.C) {
	g := &neighborGraph{}
	g.addEdge("1_100", "1_100", 0.99)
	g.sortNeighbors()
	c.Check(g.degree("1_100"), check.Equals, 0)
	c.Check(g.keys(), check.HasLen, 0)
}

func (s *graphSuite) TestNeighborOrdering(c *check.C) {
	g := &neighborGraph{}
	g.addEdge("1_100", "1_200", 0.85)
	g.addEdge("1_100", "1_300", 0.95)
	g.addEdge("1_100", "1_400", 0.85) // tie with 1_200, inserted later
	g.addEdge("1_100", "1_500", 0.90)
	g.sortNeighbors()

	nbrs := g.topK("1_100", 10)
	c.Assert(nbrs, check.HasLen, 4)
	for i := 1; i < len(nbrs); i++ {
		c.Check(nbrs[i-1].R2 >= nbrs[i].R2, check.Equals, true)
	}
	// Ties keep insertion order.
	c.Check(nbrs[2].Key, check.Equals, "1_200")
	c.Check(nbrs[3].Key, check.Equals, "1_400")
}

func (s *graphSuite) TestTopK(c *check.C) {
	g := &neighborGraph{}
	g.addEdge("1_100", "1_200", 0.95)
	g.addEdge("1_100", "1_300", 0.85)
	g.sortNeighbors()

	nbrs := g.topK("1_100", 1)
	c.Assert(nbrs, check.HasLen, 1)
	c.Check(nbrs[0].Key, check.Equals, "1_200")

	// Variants absent from the graph have no neighbors.
	c.Check(g.topK("1_999", 1), check.HasLen, 0)
}

func (s *graphSuite) TestBuildFromFile(c *check.C) {
	path := writeLDFile(c,
		"CHR_A BP_A SNP_A CHR_B BP_B SNP_B R2",
		"1 100 rs1 1 200 rs2 0.9",
		"1 200 rs2 1 300 rs3 0.5",
	)
	g, err := buildNeighborGraph(&ldFile{path: path, batchSize: 10}, 0.8)
	c.Assert(err, check.IsNil)
	c.Check(g.keys(), check.DeepEquals, []string{"1_100", "1_200"})
	c.Check(g.degree("1_100"), check.Equals, 1)
	c.Check(g.degree("1_200"), check.Equals, 1)
	c.Check(g.degree("1_300"), check.Equals, 0)
}
