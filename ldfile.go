// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package ldmask

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/pgzip"
	log "github.com/sirupsen/logrus"
)

// ldHeaderToken is the 7th column label in a PLINK pairwise LD file
// header row.
const ldHeaderToken = "R2"

// variantKey canonicalizes a (chromosome, position) pair into the key
// used by every downstream structure.
func variantKey(chrom, pos string) string {
	return chrom + "_" + pos
}

func splitVariantKey(key string) (chrom, pos string) {
	if i := strings.LastIndexByte(key, '_'); i >= 0 {
		return key[:i], key[i+1:]
	}
	return key, ""
}

// sortKeysGenomic orders variant keys by chromosome, then numeric
// position. Chromosomes compare numerically when both parse as
// integers (so "2" sorts before "10"), lexically otherwise.
func sortKeysGenomic(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		ci, pi := splitVariantKey(keys[i])
		cj, pj := splitVariantKey(keys[j])
		if ci != cj {
			ni, erri := strconv.Atoi(ci)
			nj, errj := strconv.Atoi(cj)
			if erri == nil && errj == nil {
				return ni < nj
			}
			return ci < cj
		}
		ni, erri := strconv.Atoi(pi)
		nj, errj := strconv.Atoi(pj)
		if erri == nil && errj == nil && ni != nj {
			return ni < nj
		}
		return keys[i] < keys[j]
	})
}

// ldRecord is one validated pairwise LD observation. The pair is
// undirected: (A,B) and (B,A) describe the same edge.
type ldRecord struct {
	KeyA string
	KeyB string
	R2   float64
}

type ldScanStats struct {
	Lines   int64
	Dropped int64 // too few fields, or header row
	Bytes   int64
}

// ldFile reads a whitespace-delimited pairwise LD file (PLINK --r2
// output: CHR_A BP_A SNP_A CHR_B BP_B SNP_B R2 ...) in bounded-size
// batches. Files ending in .gz are decompressed on the fly.
type ldFile struct {
	path      string
	batchSize int
}

// scanBatches calls fn with batches of up to batchSize split rows.
// Rows with fewer than 7 fields, and header rows, are dropped before
// fn sees them. Each call re-reads the file from the beginning; the
// batch slice is reused between calls to fn.
func (f *ldFile) scanBatches(fn func(rows [][]string) error) (ldScanStats, error) {
	var stats ldScanStats
	in, err := os.Open(f.path)
	if err != nil {
		return stats, err
	}
	defer in.Close()
	var rdr io.Reader = bufio.NewReaderSize(in, 1<<20)
	if strings.HasSuffix(f.path, ".gz") {
		gz, err := pgzip.NewReader(rdr)
		if err != nil {
			return stats, fmt.Errorf("open %s: %w", f.path, err)
		}
		defer gz.Close()
		rdr = gz
	}
	batchSize := f.batchSize
	if batchSize < 1 {
		batchSize = 10000
	}
	scanner := bufio.NewScanner(rdr)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	batch := make([][]string, 0, batchSize)
	for scanner.Scan() {
		line := scanner.Text()
		stats.Lines++
		stats.Bytes += int64(len(line)) + 1
		fields := strings.Fields(line)
		if len(fields) < 7 || fields[6] == ldHeaderToken {
			stats.Dropped++
			continue
		}
		batch = append(batch, fields[:7])
		if len(batch) == batchSize {
			log.Debugf("%s: %d bytes consumed", f.path, stats.Bytes)
			if err := fn(batch); err != nil {
				return stats, err
			}
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read %s: %w", f.path, err)
	}
	if len(batch) > 0 {
		if err := fn(batch); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// scanEdges parses the R² column and calls fn with each record whose
// R² is a non-negative real number >= minR2. Records that fail to
// parse are dropped silently, as are self-pairs.
func (f *ldFile) scanEdges(minR2 float64, fn func(rec ldRecord) error) error {
	_, err := f.scanBatches(func(rows [][]string) error {
		for _, row := range rows {
			r2, err := strconv.ParseFloat(row[6], 64)
			if err != nil || math.IsNaN(r2) || r2 < 0 {
				continue
			}
			if r2 < minR2 {
				continue
			}
			a := variantKey(row[0], row[1])
			b := variantKey(row[3], row[4])
			if a == b {
				continue
			}
			if err := fn(ldRecord{KeyA: a, KeyB: b, R2: r2}); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}

// uniqueKeys returns every variant key appearing in the file (both
// sides of each row, no R² filtering), in genomic order.
func (f *ldFile) uniqueKeys() ([]string, error) {
	seen := map[string]bool{}
	_, err := f.scanBatches(func(rows [][]string) error {
		for _, row := range rows {
			seen[variantKey(row[0], row[1])] = true
			seen[variantKey(row[3], row[4])] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sortKeysGenomic(keys)
	return keys, nil
}
