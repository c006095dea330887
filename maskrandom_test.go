// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package ldmask

import (
	"fmt"

	"gopkg.in/check.v1"
)

type maskRandomSuite struct{}

var _ = check.Suite(&maskRandomSuite{})

func testKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("1_%d", (i+1)*100)
	}
	return keys
}

func (s *maskRandomSuite) TestTargetCount(c *check.C) {
	keys := testKeys(500)
	recs, _ := randomMask(keys, 0.1, 42)
	c.Assert(recs, check.HasLen, 500)
	masked := 0
	for _, rec := range recs {
		if rec.Masked {
			masked++
		}
	}
	// Stage 2 may cut provisional candidates; stage 3 always backfills
	// to the exact target while the pool lasts.
	c.Check(masked, check.Equals, 50)
}

func (s *maskRandomSuite) TestDeterminism(c *check.C) {
	keys := testKeys(300)
	a, qmsA := randomMask(keys, 0.2, 7)
	b, qmsB := randomMask(keys, 0.2, 7)
	c.Check(a, check.DeepEquals, b)
	c.Check(qmsA, check.Equals, qmsB)

	d, _ := randomMask(keys, 0.2, 8)
	c.Check(a, check.Not(check.DeepEquals), d)
}

func (s *maskRandomSuite) TestQMSRange(c *check.C) {
	keys := testKeys(200)
	_, qms := randomMask(keys, 0.1, 42)
	c.Check(qms >= 0 && qms <= 1, check.Equals, true)
}

func (s *maskRandomSuite) TestQMSGuards(c *check.C) {
	// Fewer than two masked positions: undefined, reported as 0.
	recs := []randomMaskRecord{
		{Pos: "100", Masked: true},
		{Pos: "200", Masked: false},
	}
	c.Check(maskingStrength(recs), check.Equals, 0.0)

	// Evenly spaced masked positions have zero gap variance, so
	// uniformity is exactly 1 and QMS equals the masked fraction.
	recs = []randomMaskRecord{
		{Pos: "100", Masked: true},
		{Pos: "200", Masked: true},
		{Pos: "300", Masked: true},
		{Pos: "400", Masked: true},
	}
	c.Check(maskingStrength(recs), check.Equals, 1.0)
}

func (s *maskRandomSuite) TestEmptyInput(c *check.C) {
	recs, qms := randomMask(nil, 0.1, 42)
	c.Check(recs, check.HasLen, 0)
	c.Check(qms, check.Equals, 0.0)
}
