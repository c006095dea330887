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

// MAF + cluster masking: preferentially hide simulated rare variants,
// and knock out whole haplotype-block-like clusters recovered from
// the LD distance matrix.
type maskMAFCluster struct {
	opts           maskOpts
	r2Threshold    float64
	mafThreshold   float64
	clusterSizeMin int
}

type mafClusterRecord struct {
	Chrom     string
	Pos       string
	Key       string
	Masked    bool
	MAF       float64
	Rare      bool
	ClusterID int
}

// mafClusterMask combines two masking channels over the graph's
// variant set. Channel A: among variants whose simulated MAF falls
// below mafThreshold, mask a 2*missingRate fraction (rare variants
// are preferentially hidden), capped at the rare count. Channel B:
// mask every member of max(1, missingRate*clusterCount) randomly
// chosen valid clusters. The channels are unioned. ClusterID is -1
// for variants outside any valid cluster.
func mafClusterMask(keys []string, g *neighborGraph, missingRate, mafThreshold float64, clusterSizeMin int, seed uint64) []mafClusterRecord {
	maf := newMAFSimulator(seed).Simulate(len(keys))

	dist := ldDistanceMatrix(keys, g)
	clusters := clusterVariants(keys, dist, clusterCount(len(keys)))
	labels, valid := validClusters(clusters, clusterSizeMin)
	log.Infof("clustering: %d clusters, %d valid (size >= %d)", len(clusters), len(valid), clusterSizeMin)

	keyCluster := map[string]int{}
	for _, label := range labels {
		for _, key := range valid[label] {
			keyCluster[key] = label
		}
	}

	masked := map[string]bool{}

	// Channel A: rare-variant masking.
	rng := rand.New(rand.NewSource(seed))
	var rare []string
	for i, key := range keys {
		if maf[i] < mafThreshold {
			rare = append(rare, key)
		}
	}
	nRare := int(float64(len(rare)) * missingRate * 2)
	if nRare > len(rare) {
		nRare = len(rare)
	}
	for _, key := range sampleKeys(rng, rare, nRare) {
		masked[key] = true
	}

	// Channel B: whole-cluster masking, with its own seed so the two
	// channels' draws cannot interfere.
	if len(labels) > 0 {
		crng := rand.New(rand.NewSource(seed + 1))
		nClusters := int(missingRate * float64(len(labels)))
		if nClusters < 1 {
			nClusters = 1
		}
		pool := make([]int, len(labels))
		for i := range pool {
			pool[i] = i
		}
		for _, i := range sampleIndexes(crng, pool, nClusters) {
			for _, key := range valid[labels[i]] {
				masked[key] = true
			}
		}
	}

	recs := make([]mafClusterRecord, len(keys))
	for i, key := range keys {
		chrom, pos := splitVariantKey(key)
		clusterID := -1
		if label, ok := keyCluster[key]; ok {
			clusterID = label
		}
		recs[i] = mafClusterRecord{
			Chrom:     chrom,
			Pos:       pos,
			Key:       key,
			Masked:    masked[key],
			MAF:       maf[i],
			Rare:      maf[i] < mafThreshold,
			ClusterID: clusterID,
		}
	}
	return recs
}

func (cmd *maskMAFCluster) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	cmd.opts.Flags(flags)
	flags.Float64Var(&cmd.r2Threshold, "r2-threshold", 0.8, "minimum R² for an edge to enter the LD graph")
	flags.Float64Var(&cmd.mafThreshold, "maf-threshold", 0.05, "simulated MAF below which a variant counts as rare")
	flags.IntVar(&cmd.clusterSizeMin, "cluster-size-min", 3, "drop clusters smaller than `N` variants")
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
	recs := mafClusterMask(keys, g, cmd.opts.missingRate, cmd.mafThreshold, cmd.clusterSizeMin, cmd.opts.randSeed)

	f, err := createOutputFile(cmd.opts.outputFilename)
	if err != nil {
		return 1
	}
	defer f.Close()
	bufw := bufio.NewWriter(f)
	fmt.Fprint(bufw, "CHR,POS,SNP_ID,MASKED,MAF,IS_RARE,CLUSTER_ID\n")
	masked, nRare := 0, 0
	for _, rec := range recs {
		if rec.Masked {
			masked++
		}
		if rec.Rare {
			nRare++
		}
		fmt.Fprintf(bufw, "%s,%s,%s,%v,%v,%v,%d\n",
			rec.Chrom, rec.Pos, rec.Key, rec.Masked, rec.MAF, rec.Rare, rec.ClusterID)
	}
	if err = bufw.Flush(); err != nil {
		return 1
	}
	if err = f.Close(); err != nil {
		return 1
	}
	logMaskSummary("mafcluster", len(recs), masked)
	log.Infof("mafcluster: %d rare variants (MAF < %g)", nRare, cmd.mafThreshold)
	return 0
}
