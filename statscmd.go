package ldmask

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"strconv"
)

// stats reads an LD file once and reports summary counts and the R²
// distribution as JSON, without retaining anything but running
// aggregates.
type statscmd struct {
	inputFilename string
	batchSize     int
}

func (cmd *statscmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&cmd.inputFilename, "i", "", "input LD `file` (PLINK --r2 output, optionally gzipped)")
	flags.IntVar(&cmd.batchSize, "batch-size", 10000, "input lines per batch")
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
	err = cmd.doStats(&ldFile{path: cmd.inputFilename, batchSize: cmd.batchSize}, stdout)
	if err != nil {
		return 1
	}
	return 0
}

func (cmd *statscmd) doStats(f *ldFile, output io.Writer) error {
	var ret struct {
		Lines        int64
		DroppedLines int64
		Records      int64
		InvalidR2    int64
		Variants     int
		R2Min        float64
		R2Max        float64
		R2Mean       float64
	}
	seen := map[string]bool{}
	var sum float64
	min, max := math.Inf(1), math.Inf(-1)
	stats, err := f.scanBatches(func(rows [][]string) error {
		for _, row := range rows {
			seen[variantKey(row[0], row[1])] = true
			seen[variantKey(row[3], row[4])] = true
			r2, err := strconv.ParseFloat(row[6], 64)
			if err != nil || math.IsNaN(r2) || r2 < 0 {
				ret.InvalidR2++
				continue
			}
			ret.Records++
			sum += r2
			if r2 < min {
				min = r2
			}
			if r2 > max {
				max = r2
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	ret.Lines = stats.Lines
	ret.DroppedLines = stats.Dropped
	ret.Variants = len(seen)
	if ret.Records > 0 {
		ret.R2Min = min
		ret.R2Max = max
		ret.R2Mean = sum / float64(ret.Records)
	}
	return json.NewEncoder(output).Encode(ret)
}
