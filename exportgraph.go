// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package ldmask

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/kshedden/gonpy"
	log "github.com/sirupsen/logrus"
)

// export-graph writes the filtered LD graph in the layout the
// downstream tensor converter and visualizer consume: a node-feature
// matrix (chromosome, position), a 2×E edge index of surrogate codes,
// the E edge weights, and a CSV mapping codes back to variant keys.
// Codes are assigned over the full key set (batch fit), so they are
// stable for one run and deterministic given one input.
type exportGraph struct {
	inputFilename string
	outputDir     string
	batchSize     int
	r2Threshold   float64
}

func (cmd *exportGraph) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&cmd.inputFilename, "i", "", "input LD `file` (PLINK --r2 output, optionally gzipped)")
	flags.StringVar(&cmd.outputDir, "output-dir", "./out", "output `directory`")
	flags.IntVar(&cmd.batchSize, "batch-size", 10000, "input lines per batch")
	flags.Float64Var(&cmd.r2Threshold, "r2-threshold", 0.8, "minimum R² for an edge to be exported")
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	loglevel := flags.String("loglevel", "info", "logging threshold (trace, debug, info, warn, error, fatal, or panic)")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}
	if cmd.inputFilename == "" {
		err = fmt.Errorf("must provide -i input file")
		return 2
	}
	if err = setupLogging(*loglevel, *pprof); err != nil {
		return 2
	}

	// Pass 1: collect the filtered edge set and register every key,
	// then fit codes over the whole set.
	f := &ldFile{path: cmd.inputFilename, batchSize: cmd.batchSize}
	var edges []ldRecord
	reg := &variantRegistry{}
	err = f.scanEdges(cmd.r2Threshold, func(rec ldRecord) error {
		reg.Observe(rec.KeyA)
		reg.Observe(rec.KeyB)
		edges = append(edges, rec)
		return nil
	})
	if err != nil {
		return 1
	}
	reg.Fit()
	log.Infof("export-graph: %d nodes, %d edges >= %g", reg.Len(), len(edges), cmd.r2Threshold)

	nodes := make([]float64, 0, reg.Len()*2)
	for _, key := range reg.Keys() {
		chrom, pos := splitVariantKey(key)
		c, _ := strconv.ParseFloat(chrom, 64)
		p, _ := strconv.ParseFloat(pos, 64)
		nodes = append(nodes, c, p)
	}
	err = writeNpyFloat64(cmd.outputDir+"/nodes.npy", nodes, []int{reg.Len(), 2})
	if err != nil {
		return 1
	}

	edgeIndex := make([]int64, 2*len(edges))
	weights := make([]float64, len(edges))
	for i, rec := range edges {
		a, err := reg.Code(rec.KeyA)
		if err != nil {
			panic(err)
		}
		b, err := reg.Code(rec.KeyB)
		if err != nil {
			panic(err)
		}
		edgeIndex[i] = int64(a)
		edgeIndex[len(edges)+i] = int64(b)
		weights[i] = rec.R2
	}
	err = writeNpyInt64(cmd.outputDir+"/edge_index.npy", edgeIndex, []int{2, len(edges)})
	if err != nil {
		return 1
	}
	err = writeNpyFloat64(cmd.outputDir+"/edge_attr.npy", weights, []int{len(edges)})
	if err != nil {
		return 1
	}

	nodesCSV := cmd.outputDir + "/nodes.csv"
	out, err := createOutputFile(nodesCSV)
	if err != nil {
		return 1
	}
	defer out.Close()
	bufw := bufio.NewWriter(out)
	fmt.Fprint(bufw, "CODE,SNP_ID,CHR,POS\n")
	for code, key := range reg.Keys() {
		chrom, pos := splitVariantKey(key)
		fmt.Fprintf(bufw, "%d,%s,%s,%s\n", code, key, chrom, pos)
	}
	if err = bufw.Flush(); err != nil {
		return 1
	}
	if err = out.Close(); err != nil {
		return 1
	}
	fmt.Fprintln(stdout, cmd.outputDir)
	return 0
}

func writeNpyFloat64(path string, data []float64, shape []int) error {
	f, err := createOutputFile(path)
	if err != nil {
		return err
	}
	defer f.Close()
	bufw := bufio.NewWriter(f)
	npw, err := gonpy.NewWriter(nopCloser{bufw})
	if err != nil {
		return err
	}
	npw.Shape = shape
	if err = npw.WriteFloat64(data); err != nil {
		return err
	}
	if err = bufw.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func writeNpyInt64(path string, data []int64, shape []int) error {
	f, err := createOutputFile(path)
	if err != nil {
		return err
	}
	defer f.Close()
	bufw := bufio.NewWriter(f)
	npw, err := gonpy.NewWriter(nopCloser{bufw})
	if err != nil {
		return err
	}
	npw.Shape = shape
	if err = npw.WriteInt64(data); err != nil {
		return err
	}
	if err = bufw.Flush(); err != nil {
		return err
	}
	return f.Close()
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
