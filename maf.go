// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package ldmask

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// mafSimulator draws a synthetic minor-allele-frequency value per
// variant from a two-state Markov chain walked in genomic order, so
// rare/common regimes are spatially correlated along the chromosome.
// Rare state emits Beta(1,20) (skewed toward zero); common emits
// Beta(2,2) scaled into [0,0.5]. All values are capped at 0.5.
type mafSimulator struct {
	rng        *rand.Rand
	rareBeta   distuv.Beta
	commonBeta distuv.Beta
}

const (
	mafInitRare     = 0.3
	mafRareToRare   = 0.7
	mafCommonToRare = 0.2
)

func newMAFSimulator(seed uint64) *mafSimulator {
	src := rand.NewSource(seed)
	return &mafSimulator{
		rng:        rand.New(src),
		rareBeta:   distuv.Beta{Alpha: 1, Beta: 20, Src: src},
		commonBeta: distuv.Beta{Alpha: 2, Beta: 2, Src: src},
	}
}

// Simulate returns one MAF per variant, in order.
func (s *mafSimulator) Simulate(n int) []float64 {
	maf := make([]float64, n)
	rare := false
	for i := range maf {
		if i == 0 {
			rare = s.rng.Float64() < mafInitRare
		} else if rare {
			rare = s.rng.Float64() < mafRareToRare
		} else {
			rare = s.rng.Float64() < mafCommonToRare
		}
		var v float64
		if rare {
			v = s.rareBeta.Rand()
		} else {
			v = s.commonBeta.Rand() * 0.5
		}
		if v > 0.5 {
			v = 0.5
		}
		maf[i] = v
	}
	return maf
}
