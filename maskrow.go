// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package ldmask

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"math"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
)

// Row-wise (per-sample) missingness: simulate genotype rows over the
// observed variant set, hide a tiered random fraction of each row,
// and classify the overall missingness mechanism.
type maskRowwise struct {
	opts     maskOpts
	nSamples int
}

const genotypeMissing = -9

// Severity tiers: fraction of samples assigned, and the per-sample
// missing-rate range drawn within each tier.
var missingnessTiers = []struct {
	name     string
	fraction float64
	lo, hi   float64
}{
	{"low", 0.7, 0.0, 0.1},
	{"medium", 0.2, 0.1, 0.3},
	{"high", 0.1, 0.3, 0.6},
}

type sampleMissingness struct {
	SampleID string
	Total    int
	Missing  int
	Pct      float64
	Category string
	High     bool
}

// tierCategories assigns severity categories to nSamples in fixed
// proportions (70/20/10) with any rounding remainder going to "high".
// The slice is in tier order; callers shuffle it.
func tierCategories(nSamples int) []string {
	cats := make([]string, 0, nSamples)
	nLow := int(float64(nSamples) * missingnessTiers[0].fraction)
	nMedium := int(float64(nSamples) * missingnessTiers[1].fraction)
	for i := 0; i < nLow; i++ {
		cats = append(cats, "low")
	}
	for i := 0; i < nMedium; i++ {
		cats = append(cats, "medium")
	}
	for len(cats) < nSamples {
		cats = append(cats, "high")
	}
	return cats
}

func tierRange(category string) (lo, hi float64) {
	for _, t := range missingnessTiers {
		if t.name == category {
			return t.lo, t.hi
		}
	}
	return 0, 0
}

// rowwiseMask simulates nSamples ternary genotype rows over nVariants
// variants, applies tiered per-sample missingness, and returns the
// per-sample table plus the global pattern classification (MNAR when
// the coefficient of variation of missingness exceeds 1, MAR
// otherwise).
func rowwiseMask(nVariants, nSamples int, seed uint64) ([]sampleMissingness, string) {
	rng := rand.New(rand.NewSource(seed))

	cats := tierCategories(nSamples)
	rng.Shuffle(len(cats), func(i, j int) {
		cats[i], cats[j] = cats[j], cats[i]
	})

	samples := make([]sampleMissingness, nSamples)
	pcts := make([]float64, nSamples)
	genotypes := make([]int8, nVariants)
	for i := range samples {
		// Ternary genotype calls: AA/AB/BB with p = 0.25/0.5/0.25.
		for j := range genotypes {
			switch u := rng.Float64(); {
			case u < 0.25:
				genotypes[j] = 0
			case u < 0.75:
				genotypes[j] = 1
			default:
				genotypes[j] = 2
			}
		}
		lo, hi := tierRange(cats[i])
		sampleRate := lo + rng.Float64()*(hi-lo)
		nMask := int(float64(nVariants) * sampleRate)
		if nMask > 0 {
			pool := make([]int, nVariants)
			for j := range pool {
				pool[j] = j
			}
			for _, j := range sampleIndexes(rng, pool, nMask) {
				genotypes[j] = genotypeMissing
			}
		}
		missing := 0
		for _, gt := range genotypes {
			if gt == genotypeMissing {
				missing++
			}
		}
		pct := 0.0
		if nVariants > 0 {
			pct = float64(missing) / float64(nVariants) * 100
		}
		pcts[i] = pct
		samples[i] = sampleMissingness{
			SampleID: fmt.Sprintf("SAMPLE_%04d", i),
			Total:    nVariants,
			Missing:  missing,
			Pct:      pct,
			Category: cats[i],
			High:     pct >= 30,
		}
	}
	return samples, classifyPattern(pcts)
}

// classifyPattern labels the global missingness mechanism from the
// coefficient of variation of per-sample missingness percentages.
// Zero mean (or no samples) counts as CV 0, hence MAR.
func classifyPattern(pcts []float64) string {
	mean, variance := popVariance(pcts)
	if mean <= 0 {
		return "MAR"
	}
	if cv := math.Sqrt(variance) / mean; cv > 1 {
		return "MNAR"
	}
	return "MAR"
}

func (cmd *maskRowwise) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	cmd.opts.Flags(flags)
	flags.IntVar(&cmd.nSamples, "samples", 1000, "number of synthetic samples `N`")
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	loglevel := flags.String("loglevel", "info", "logging threshold (trace, debug, info, warn, error, fatal, or panic)")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}
	if err = cmd.opts.Check(); err != nil {
		return 2
	}
	if err = setupLogging(*loglevel, *pprof); err != nil {
		return 2
	}

	keys, err := cmd.opts.ldFile().uniqueKeys()
	if err != nil {
		return 1
	}
	log.Infof("found %d unique variants", len(keys))
	samples, pattern := rowwiseMask(len(keys), cmd.nSamples, cmd.opts.randSeed)

	f, err := createOutputFile(cmd.opts.outputFilename)
	if err != nil {
		return 1
	}
	defer f.Close()
	bufw := bufio.NewWriter(f)
	fmt.Fprint(bufw, "SAMPLE_ID,N_TOTAL_SNPS,N_MISSING_SNPS,MISSINGNESS_PCT,CATEGORY,HIGH_MISSINGNESS,PATTERN_TYPE\n")
	high := 0
	for _, s := range samples {
		if s.High {
			high++
		}
		fmt.Fprintf(bufw, "%s,%d,%d,%v,%s,%v,%s\n",
			s.SampleID, s.Total, s.Missing, s.Pct, s.Category, s.High, pattern)
	}
	if err = bufw.Flush(); err != nil {
		return 1
	}
	if err = f.Close(); err != nil {
		return 1
	}
	var pcts []float64
	for _, s := range samples {
		pcts = append(pcts, s.Pct)
	}
	mean, _ := popVariance(pcts)
	log.Infof("rowwise: %d samples over %d variants, mean missingness %.2f%%, %d with high missingness, pattern %s",
		len(samples), len(keys), mean, high, pattern)
	return 0
}
