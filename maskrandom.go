// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package ldmask

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
)

// Multi-stage random masking: rank by one random score, filter by a
// second, backfill from a third draw, and score the result's spatial
// uniformity (QMS).
type maskRandom struct {
	opts maskOpts
}

type randomMaskRecord struct {
	Chrom  string
	Pos    string
	Key    string
	Masked bool
	Stage1 float64
	Stage2 float64
	Stage3 float64
}

// stage2Cutoff is the survival threshold applied to provisional
// candidates' second-stage scores.
const stage2Cutoff = 0.3

// randomMask selects variants to mask in three stages. Stage 1 ranks
// all variants by their first score ascending and keeps the lowest
// missingRate fraction as provisional candidates. Stage 2 keeps only
// candidates whose second score exceeds stage2Cutoff. Stage 3 refills
// from the unselected pool, uniformly without replacement, until the
// stage-1 target count is restored (or the pool runs dry). Returns
// the per-variant records and the QMS score.
func randomMask(keys []string, missingRate float64, seed uint64) ([]randomMaskRecord, float64) {
	n := len(keys)
	rng := rand.New(rand.NewSource(seed))
	scores := make([][]float64, 3)
	for s := range scores {
		scores[s] = make([]float64, n)
		for i := range scores[s] {
			scores[s][i] = rng.Float64()
		}
	}

	target := int(float64(n) * missingRate)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[0][order[a]] < scores[0][order[b]]
	})

	masked := map[int]bool{}
	for _, idx := range order[:target] {
		if scores[1][idx] > stage2Cutoff {
			masked[idx] = true
		}
	}

	if need := target - len(masked); need > 0 {
		pool := make([]int, 0, n-len(masked))
		for i := 0; i < n; i++ {
			if !masked[i] {
				pool = append(pool, i)
			}
		}
		for _, idx := range sampleIndexes(rng, pool, need) {
			masked[idx] = true
		}
	}

	recs := make([]randomMaskRecord, n)
	for i, key := range keys {
		chrom, pos := splitVariantKey(key)
		recs[i] = randomMaskRecord{
			Chrom:  chrom,
			Pos:    pos,
			Key:    key,
			Masked: masked[i],
			Stage1: scores[0][i],
			Stage2: scores[1][i],
			Stage3: scores[2][i],
		}
	}
	return recs, maskingStrength(recs)
}

// maskingStrength is the quantitative masking strength (QMS):
// masked fraction times the spacing uniformity of the masked
// variants' genomic positions. Zero if fewer than two masked
// positions.
func maskingStrength(recs []randomMaskRecord) float64 {
	var positions []float64
	for _, rec := range recs {
		if !rec.Masked {
			continue
		}
		pos, err := strconv.ParseFloat(rec.Pos, 64)
		if err != nil {
			continue
		}
		positions = append(positions, pos)
	}
	if len(positions) < 2 {
		return 0
	}
	sort.Float64s(positions)
	gaps := make([]float64, len(positions)-1)
	for i := range gaps {
		gaps[i] = positions[i+1] - positions[i]
	}
	uniformity := 1.0
	if len(gaps) > 1 {
		mean, variance := popVariance(gaps)
		uniformity = 1 / (1 + variance/(mean*mean+1e-10))
	}
	return float64(len(positions)) / float64(len(recs)) * uniformity
}

func (cmd *maskRandom) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	cmd.opts.Flags(flags)
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
	recs, qms := randomMask(keys, cmd.opts.missingRate, cmd.opts.randSeed)

	f, err := createOutputFile(cmd.opts.outputFilename)
	if err != nil {
		return 1
	}
	defer f.Close()
	bufw := bufio.NewWriter(f)
	fmt.Fprint(bufw, "CHR,POS,SNP_ID,MASKED,STAGE1_VAL,STAGE2_VAL,STAGE3_VAL,QMS\n")
	masked := 0
	for _, rec := range recs {
		if rec.Masked {
			masked++
		}
		fmt.Fprintf(bufw, "%s,%s,%s,%v,%v,%v,%v,%v\n",
			rec.Chrom, rec.Pos, rec.Key, rec.Masked,
			rec.Stage1, rec.Stage2, rec.Stage3, qms)
	}
	if err = bufw.Flush(); err != nil {
		return 1
	}
	if err = f.Close(); err != nil {
		return 1
	}
	logMaskSummary("random", len(recs), masked)
	log.Infof("quantitative masking strength: %.4f", qms)
	return 0
}
