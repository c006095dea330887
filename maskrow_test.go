// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package ldmask

import (
	"gopkg.in/check.v1"
)

type maskRowSuite struct{}

var _ = check.Suite(&maskRowSuite{})

func (s *maskRowSuite) TestTierProportions(c *check.C) {
	cats := tierCategories(100)
	c.Assert(cats, check.HasLen, 100)
	counts := map[string]int{}
	for _, cat := range cats {
		counts[cat]++
	}
	c.Check(counts["low"], check.Equals, 70)
	c.Check(counts["medium"], check.Equals, 20)
	c.Check(counts["high"], check.Equals, 10)
}

func (s *maskRowSuite) TestTierRemainderGoesHigh(c *check.C) {
	cats := tierCategories(99)
	counts := map[string]int{}
	for _, cat := range cats {
		counts[cat]++
	}
	c.Check(counts["low"], check.Equals, 69)
	c.Check(counts["medium"], check.Equals, 19)
	c.Check(counts["high"], check.Equals, 11)
}

func (s *maskRowSuite) TestRowwiseMask(c *check.C) {
	samples, pattern := rowwiseMask(200, 50, 42)
	c.Assert(samples, check.HasLen, 50)
	for _, smp := range samples {
		c.Check(smp.Total, check.Equals, 200)
		c.Check(smp.Missing >= 0 && smp.Missing <= 200, check.Equals, true)
		lo, hi := tierRange(smp.Category)
		c.Check(smp.Pct >= lo*100, check.Equals, true)
		c.Check(smp.Pct < hi*100+1, check.Equals, true)
		c.Check(smp.High, check.Equals, smp.Pct >= 30)
	}
	c.Check(pattern == "MAR" || pattern == "MNAR", check.Equals, true)
}

func (s *maskRowSuite) TestRowwiseDeterminism(c *check.C) {
	a, patternA := rowwiseMask(100, 30, 7)
	b, patternB := rowwiseMask(100, 30, 7)
	c.Check(a, check.DeepEquals, b)
	c.Check(patternA, check.Equals, patternB)
}

func (s *maskRowSuite) TestClassifyPattern(c *check.C) {
	c.Check(classifyPattern(nil), check.Equals, "MAR")
	c.Check(classifyPattern([]float64{0, 0, 0}), check.Equals, "MAR")
	// Uniform missingness: CV 0.
	c.Check(classifyPattern([]float64{10, 10, 10, 10}), check.Equals, "MAR")
	// One extreme sample drives CV above 1.
	c.Check(classifyPattern([]float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 100}), check.Equals, "MNAR")
}

func (s *maskRowSuite) TestRowwiseEmptyVariants(c *check.C) {
	samples, pattern := rowwiseMask(0, 10, 42)
	c.Assert(samples, check.HasLen, 10)
	for _, smp := range samples {
		c.Check(smp.Missing, check.Equals, 0)
		c.Check(smp.Pct, check.Equals, 0.0)
	}
	c.Check(pattern, check.Equals, "MAR")
}
