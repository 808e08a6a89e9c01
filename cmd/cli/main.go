// Command cli analyzes hysteresis-loop measurement files and prints the
// extracted parameters as JSON or a markdown summary.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"magfit/adapters/loader"
	"magfit/app"
	"magfit/domain/loop"
)

func main() {
	// Load .env file if present (optional for local development)
	if err := godotenv.Load(); err != nil {
		log.Printf("[cli] no .env file found, using environment defaults")
	}

	opts := app.DefaultAnalysisOptions()
	if x := os.Getenv("MAGFIT_X_COLUMN"); x != "" {
		opts.XName = x
	}
	if y := os.Getenv("MAGFIT_Y_COLUMN"); y != "" {
		opts.YName = y
	}

	var (
		format    = flag.String("format", "json", "output format: json or markdown")
		subtract  = flag.Bool("subtract", false, "write background-corrected CSVs next to the inputs")
		xName     = flag.String("x", opts.XName, "field column name")
		yName     = flag.String("y", opts.YName, "moment column name")
		r2Min     = flag.Float64("r2-min", opts.Detect.R2Min, "minimum window R² for tail detection")
		nMin      = flag.Int("n-min", opts.Detect.NMin, "minimum tail window size in points")
		smooth    = flag.Int("smooth", opts.Detect.SmoothWindow, "diagnostic smoothing window (0 disables)")
		coreExcl  = flag.Float64("core-exclude", opts.Detect.CoreExcludeFrac, "excluded core fraction of max |H|")
		demagFlag = flag.Bool("demag", false, "request demagnetization correction (advisory flag)")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: cli [flags] file.csv [file2.xlsx ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	opts.XName = *xName
	opts.YName = *yName
	opts.Detect.R2Min = *r2Min
	opts.Detect.NMin = *nMin
	opts.Detect.SmoothWindow = *smooth
	opts.Detect.CoreExcludeFrac = *coreExcl
	opts.ApplyDemag = *demagFlag
	opts.Subtract = *subtract

	datasets := make([]*loop.Dataset, 0, flag.NArg())
	paths := make([]string, 0, flag.NArg())
	for _, path := range flag.Args() {
		ds, err := loader.Load(path)
		if err != nil {
			// A bad file should not kill the batch; report and continue.
			log.Printf("[cli] skipping %s: %v", path, err)
			continue
		}
		datasets = append(datasets, ds)
		paths = append(paths, path)
	}
	if len(datasets) == 0 {
		log.Fatal("[cli] no loadable input files")
	}

	service := app.NewAnalysisService()
	report, err := service.AnalyzeBatch(context.Background(), datasets, opts)
	if err != nil {
		log.Fatalf("[cli] analysis failed: %v", err)
	}

	if *subtract {
		for i, d := range report.Datasets {
			if d.Corrected == nil {
				continue
			}
			out := correctedPath(paths[i])
			if err := loader.WriteCSV(d.Corrected, out); err != nil {
				log.Printf("[cli] failed to write %s: %v", out, err)
				continue
			}
			log.Printf("[cli] wrote corrected data to %s", out)
		}
	}

	switch *format {
	case "markdown":
		fmt.Println(report.Markdown())
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			log.Fatalf("[cli] encode report: %v", err)
		}
	}
}

func correctedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_corr.csv"
}
