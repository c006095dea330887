// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package ldmask

import (
	"bufio"
	"flag"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
)

// k-nearest-neighbor masking: pick random seed variants and mask each
// seed together with its k strongest LD neighbors, modeling locally
// correlated dropout.
type maskKNN struct {
	opts        maskOpts
	k           int
	r2Threshold float64
}

type knnMaskRecord struct {
	Chrom     string
	Pos       string
	Key       string
	Masked    bool
	Seed      bool
	Neighbors int
}

// knnMask selects floor(len(keys)*missingRate) seeds uniformly at
// random and masks each seed plus its top-k neighbors in g. Overlap
// between neighborhoods shrinks the final masked set.
func knnMask(keys []string, g *neighborGraph, k int, missingRate float64, seed uint64) []knnMaskRecord {
	rng := rand.New(rand.NewSource(seed))
	nSeeds := int(float64(len(keys)) * missingRate)
	seeds := map[string]bool{}
	masked := map[string]bool{}
	for _, key := range sampleKeys(rng, keys, nSeeds) {
		seeds[key] = true
		masked[key] = true
		for _, nbr := range g.topK(key, k) {
			masked[nbr.Key] = true
		}
	}
	recs := make([]knnMaskRecord, len(keys))
	for i, key := range keys {
		chrom, pos := splitVariantKey(key)
		recs[i] = knnMaskRecord{
			Chrom:     chrom,
			Pos:       pos,
			Key:       key,
			Masked:    masked[key],
			Seed:      seeds[key],
			Neighbors: g.degree(key),
		}
	}
	return recs
}

func (cmd *maskKNN) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	cmd.opts.Flags(flags)
	flags.IntVar(&cmd.k, "k", 5, "mask each seed's `K` strongest neighbors")
	flags.Float64Var(&cmd.r2Threshold, "r2-threshold", 0.8, "minimum R² for an edge to enter the neighbor graph")
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

	g, err := buildNeighborGraph(cmd.opts.ldFile(), cmd.r2Threshold)
	if err != nil {
		return 1
	}
	keys := g.keys()
	log.Infof("neighbor graph: %d variants with at least one edge >= %g", len(keys), cmd.r2Threshold)
	recs := knnMask(keys, g, cmd.k, cmd.opts.missingRate, cmd.opts.randSeed)

	f, err := createOutputFile(cmd.opts.outputFilename)
	if err != nil {
		return 1
	}
	defer f.Close()
	bufw := bufio.NewWriter(f)
	fmt.Fprint(bufw, "CHR,POS,SNP_ID,MASKED,IS_SEED,N_NEIGHBORS\n")
	masked, seeds := 0, 0
	for _, rec := range recs {
		if rec.Masked {
			masked++
		}
		if rec.Seed {
			seeds++
		}
		fmt.Fprintf(bufw, "%s,%s,%s,%v,%v,%d\n",
			rec.Chrom, rec.Pos, rec.Key, rec.Masked, rec.Seed, rec.Neighbors)
	}
	if err = bufw.Flush(); err != nil {
		return 1
	}
	if err = f.Close(); err != nil {
		return 1
	}
	logMaskSummary("knn", len(recs), masked)
	log.Infof("knn: %d seeds, k=%d", seeds, cmd.k)
	return 0
}
