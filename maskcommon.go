// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package ldmask

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"sort"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
)

// maskOpts holds the flags shared by every masking strategy.
type maskOpts struct {
	inputFilename  string
	outputFilename string
	batchSize      int
	randSeed       uint64
	missingRate    float64
}

func (o *maskOpts) Flags(flags *flag.FlagSet) {
	flags.StringVar(&o.inputFilename, "i", "", "input LD `file` (PLINK --r2 output, optionally gzipped)")
	flags.StringVar(&o.outputFilename, "o", "", "output mask table `file` (CSV)")
	flags.IntVar(&o.batchSize, "batch-size", 10000, "input lines per batch")
	flags.Uint64Var(&o.randSeed, "random-seed", 42, "PRNG seed")
	flags.Float64Var(&o.missingRate, "missing-rate", 0.1, "fraction of entities to mask")
}

func (o *maskOpts) Check() error {
	if o.inputFilename == "" {
		return errors.New("must provide -i input file")
	}
	if o.outputFilename == "" {
		return errors.New("must provide -o output file")
	}
	if o.missingRate < 0 || o.missingRate > 1 {
		return fmt.Errorf("-missing-rate %g out of range [0,1]", o.missingRate)
	}
	return nil
}

func (o *maskOpts) ldFile() *ldFile {
	return &ldFile{path: o.inputFilename, batchSize: o.batchSize}
}

// createOutputFile creates path, making parent directories as needed.
func createOutputFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

// sampleIndexes picks n distinct values from pool uniformly at random
// (consuming pool), returned in ascending order. If n exceeds the
// pool, the whole pool is returned.
func sampleIndexes(rng *rand.Rand, pool []int, n int) []int {
	if n > len(pool) {
		n = len(pool)
	}
	picked := make([]int, 0, n)
	for len(picked) < n {
		i := rng.Intn(len(pool))
		picked = append(picked, pool[i])
		pool[i] = pool[len(pool)-1]
		pool = pool[:len(pool)-1]
	}
	sort.Ints(picked)
	return picked
}

// sampleKeys picks n distinct keys uniformly at random, preserving
// the original key order in the result.
func sampleKeys(rng *rand.Rand, keys []string, n int) []string {
	pool := make([]int, len(keys))
	for i := range pool {
		pool[i] = i
	}
	idx := sampleIndexes(rng, pool, n)
	picked := make([]string, len(idx))
	for i, j := range idx {
		picked[i] = keys[j]
	}
	return picked
}

// popVariance is the population (biased) variance, matching the
// convention used for the spacing-uniformity and missingness-spread
// statistics. Returns mean, variance.
func popVariance(x []float64) (mean, variance float64) {
	if len(x) == 0 {
		return 0, 0
	}
	if len(x) == 1 {
		return x[0], 0
	}
	mean, variance = stat.MeanVariance(x, nil)
	variance *= float64(len(x)-1) / float64(len(x))
	return mean, variance
}

// setupLogging applies the -loglevel flag and starts the optional
// pprof listener shared by every subcommand.
func setupLogging(loglevel, pprofAddr string) error {
	lvl, err := log.ParseLevel(loglevel)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	if pprofAddr != "" {
		go func() {
			log.Println(http.ListenAndServe(pprofAddr, nil))
		}()
	}
	return nil
}

func logMaskSummary(strategy string, total, masked int) {
	rate := 0.0
	if total > 0 {
		rate = float64(masked) / float64(total) * 100
	}
	log.Infof("%s: masked %d of %d (%.1f%%)", strategy, masked, total, rate)
}
