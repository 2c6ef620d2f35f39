// plansift extracts structured zoning and unit-mix data from NYC
// architectural drawing sets.
//
// It reads a PDF drawing set, locates the schedule and zoning sheets,
// reconstructs the unit tables, and emits a normalized JSON extract
// with per-field evidence and confidence.
//
// Usage:
//
//	plansift -pdf plans.pdf [options]
//
// Required flags:
//
//	-pdf string       Path to the drawing set PDF
//
// Options:
//
//	-output string    Output JSON path (default: stdout)
//	-tuning string    YAML tuning file overriding extraction defaults
//	-pluto string     JSON file with the tax lot's PLUTO figures
//	-skip string      Comma-separated page numbers to exclude
//	-docai string     Document AI processor as project/location/processor
//	                  (enables the OCR fallback for scanned sets)
//	-verbose          Log pipeline progress to stderr
//	-synth string     Write a synthetic demo drawing set to this path
//	                  and exit (development aid)
//
// Examples:
//
// Extract a vector drawing set:
//
//	plansift -pdf plans.pdf -output extract.json
//
// Extract a scanned set with Document AI and PLUTO cross-checks:
//
//	plansift -pdf scan.pdf -docai my-project/us/abc123 -pluto lot.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/plansift/plansift/pkg/confidence"
	"github.com/plansift/plansift/pkg/ocr"
	"github.com/plansift/plansift/pkg/pipeline"
	"github.com/plansift/plansift/pkg/recipes"
)

func main() {
	pdfPath := flag.String("pdf", "", "Path to the drawing set PDF")
	outputPath := flag.String("output", "", "Output JSON path (default: stdout)")
	tuningPath := flag.String("tuning", "", "YAML tuning file")
	plutoPath := flag.String("pluto", "", "JSON file with PLUTO lot figures")
	skipPages := flag.String("skip", "", "Comma-separated page numbers to exclude")
	docaiSpec := flag.String("docai", "", "Document AI processor as project/location/processor")
	verbose := flag.Bool("verbose", false, "Log pipeline progress to stderr")
	synthPath := flag.String("synth", "", "Write a synthetic demo drawing set and exit")
	flag.Parse()

	if *synthPath != "" {
		if err := writeSynthSet(*synthPath); err != nil {
			fmt.Printf("Failed to write demo set: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Demo drawing set written:", *synthPath)
		return
	}

	if *pdfPath == "" {
		fmt.Println("Error: Must provide -pdf path")
		os.Exit(1)
	}

	tuning, err := pipeline.LoadTuning(*tuningPath)
	if err != nil {
		fmt.Printf("Failed to load tuning: %v\n", err)
		os.Exit(1)
	}

	logger := zap.NewNop()
	if *verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Printf("Failed to build logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
	}

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if *docaiSpec != "" {
		provider, err := docaiProvider(*docaiSpec)
		if err != nil {
			fmt.Printf("Invalid -docai value: %v\n", err)
			os.Exit(1)
		}
		opts = append(opts, pipeline.WithOCRProvider(provider))
	}

	pdfBytes, err := os.ReadFile(*pdfPath)
	if err != nil {
		fmt.Printf("Failed to read PDF: %v\n", err)
		os.Exit(1)
	}

	in := pipeline.Input{PDFBytes: pdfBytes}
	if *plutoPath != "" {
		in.Pluto, err = loadPluto(*plutoPath)
		if err != nil {
			fmt.Printf("Failed to load PLUTO file: %v\n", err)
			os.Exit(1)
		}
	}
	if *skipPages != "" {
		in.Overrides, err = parseSkips(*skipPages)
		if err != nil {
			fmt.Printf("Invalid -skip value: %v\n", err)
			os.Exit(1)
		}
	}

	result, err := pipeline.New(tuning, opts...).Extract(context.Background(), in)
	if err != nil {
		fmt.Printf("Extraction failed: %v\n", err)
		os.Exit(1)
	}

	payload, err := json.MarshalIndent(result.Extract, "", "  ")
	if err != nil {
		fmt.Printf("Failed to encode extract: %v\n", err)
		os.Exit(1)
	}
	payload = append(payload, '\n')

	if *outputPath == "" {
		os.Stdout.Write(payload)
		return
	}
	if err := os.WriteFile(*outputPath, payload, 0666); err != nil {
		fmt.Printf("Failed to write output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Extract written: %s (%d units, confidence %.2f)\n",
		*outputPath, result.Extract.Totals.TotalUnits, result.Extract.Confidence)
}

// docaiProvider parses "project/location/processor".
func docaiProvider(spec string) (ocr.Provider, error) {
	parts := strings.Split(spec, "/")
	if len(parts) != 3 {
		return nil, fmt.Errorf("want project/location/processor, got %q", spec)
	}
	return ocr.NewDocAIProvider(ocr.DocAIConfig{
		ProjectID:   parts[0],
		Location:    parts[1],
		ProcessorID: parts[2],
	})
}

func loadPluto(path string) (*confidence.PlutoRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec confidence.PlutoRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &rec, nil
}

func parseSkips(spec string) (map[int]recipes.Override, error) {
	overrides := make(map[int]recipes.Override)
	for _, part := range strings.Split(spec, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("bad page number %q", part)
		}
		overrides[n] = recipes.Override{Recipe: recipes.Skip}
	}
	return overrides, nil
}
