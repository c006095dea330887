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

// Column-wise masking: hide a uniform random fraction of whole
// variants. The baseline strategy; no graph dependency.
type maskColumnwise struct {
	opts maskOpts
}

type columnMaskRecord struct {
	Chrom  string
	Pos    string
	Key    string
	Masked bool
}

// columnwiseMask marks floor(len(keys)*missingRate) variants masked,
// chosen uniformly at random without replacement.
func columnwiseMask(keys []string, missingRate float64, seed uint64) []columnMaskRecord {
	rng := rand.New(rand.NewSource(seed))
	n := int(float64(len(keys)) * missingRate)
	masked := map[string]bool{}
	for _, key := range sampleKeys(rng, keys, n) {
		masked[key] = true
	}
	recs := make([]columnMaskRecord, len(keys))
	for i, key := range keys {
		chrom, pos := splitVariantKey(key)
		recs[i] = columnMaskRecord{Chrom: chrom, Pos: pos, Key: key, Masked: masked[key]}
	}
	return recs
}

func (cmd *maskColumnwise) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	recs := columnwiseMask(keys, cmd.opts.missingRate, cmd.opts.randSeed)

	f, err := createOutputFile(cmd.opts.outputFilename)
	if err != nil {
		return 1
	}
	defer f.Close()
	bufw := bufio.NewWriter(f)
	fmt.Fprint(bufw, "CHR,POS,SNP_ID,MASKED\n")
	masked := 0
	for _, rec := range recs {
		if rec.Masked {
			masked++
		}
		fmt.Fprintf(bufw, "%s,%s,%s,%v\n", rec.Chrom, rec.Pos, rec.Key, rec.Masked)
	}
	if err = bufw.Flush(); err != nil {
		return 1
	}
	if err = f.Close(); err != nil {
		return 1
	}
	logMaskSummary("columnwise", len(recs), masked)
	return 0
}
