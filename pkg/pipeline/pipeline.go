// Package pipeline wires the extraction stages end to end.
//
// Flow: native text layer (falling back to OCR when the layer is thin),
// candidate-page scoring, sheet indexing, recipe dispatch, parallel
// recipe execution, normalization, reconciliation, and confidence
// scoring. Every stage downstream of ingestion is a pure transform, so
// recipe groups fan out on an errgroup and merge deterministically by
// page order afterwards.
package pipeline

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/plansift/plansift/pkg/confidence"
	"github.com/plansift/plansift/pkg/layout"
	"github.com/plansift/plansift/pkg/normalize"
	"github.com/plansift/plansift/pkg/ocr"
	"github.com/plansift/plansift/pkg/pdftext"
	"github.com/plansift/plansift/pkg/recipes"
	"github.com/plansift/plansift/pkg/reconcile"
	"github.com/plansift/plansift/pkg/sheets"
	"github.com/plansift/plansift/pkg/tables"
	"github.com/plansift/plansift/pkg/units"
)

// Pipeline runs plan extraction. Construct with New; the zero value has
// no logger.
type Pipeline struct {
	tuning     Tuning
	logger     *zap.Logger
	provider   ocr.Provider
	normalizer normalize.Normalizer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithOCRProvider wires an OCR fallback for image-only drawing sets.
func WithOCRProvider(p ocr.Provider) Option {
	return func(pl *Pipeline) { pl.provider = p }
}

// WithNormalizer replaces the local merge, typically with a remote
// normalizer wrapped in normalize.WithFallback.
func WithNormalizer(n normalize.Normalizer) Option {
	return func(pl *Pipeline) { pl.normalizer = n }
}

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(pl *Pipeline) { pl.logger = l }
}

// New builds a pipeline with the given tuning.
func New(tuning Tuning, opts ...Option) *Pipeline {
	pl := &Pipeline{
		tuning:     tuning,
		logger:     zap.NewNop(),
		normalizer: normalize.LocalNormalizer{},
	}
	for _, opt := range opts {
		opt(pl)
	}
	return pl
}

// Input is one extraction request. PDFBytes is required; the rest is
// optional context.
type Input struct {
	PDFBytes  []byte
	Overrides map[int]recipes.Override
	Pluto     *confidence.PlutoRecord
}

// Result is the extract plus the intermediate artifacts callers may
// want to inspect.
type Result struct {
	Extract    *normalize.NormalizedPlanExtract
	SheetIndex sheets.SheetIndex
	Candidates []sheets.CandidatePage
	Quality    *pdftext.Quality
}

// Extract runs the full pipeline over one drawing set.
func (pl *Pipeline) Extract(ctx context.Context, in Input) (*Result, error) {
	pages, pageCount, quality, err := pl.ingest(ctx, in.PDFBytes)
	if err != nil {
		return nil, err
	}
	res := &Result{Quality: quality}

	itemsByPage := make(map[int][]layout.TextItem, len(pages))
	var pageLines []sheets.PageLines
	for _, p := range pages {
		itemsByPage[p.Number] = p.Items
		pageLines = append(pageLines, sheets.PageLines{Page: p.Number, Lines: p.Lines()})
	}

	res.Candidates = sheets.DetectCandidatePages(pageLines, pl.tuning.MaxCandidatePages)
	res.SheetIndex = sheets.IndexSheets(itemsByPage, pageCount)
	pl.upgradeSheetTitles(ctx, in.PDFBytes, &res.SheetIndex, itemsByPage)

	groups := recipes.Dispatch(pageCount, res.SheetIndex, in.Overrides)
	pl.logger.Info("dispatched recipes",
		zap.Int("pages", pageCount),
		zap.Int("recipes", len(groups)),
		zap.Int("candidates", len(res.Candidates)))

	results, err := pl.runRecipes(ctx, groups, pages)
	if err != nil {
		return nil, err
	}

	extract, err := pl.normalizer.Normalize(ctx, results)
	if err != nil {
		return nil, fmt.Errorf("normalization failed: %w", err)
	}

	pl.reconcileAndScore(extract, pages, in.Pluto)
	res.Extract = extract
	return res, nil
}

// ingest extracts the native text layer, replacing thin pages with OCR
// output when a provider is wired and enabled.
func (pl *Pipeline) ingest(ctx context.Context, pdfBytes []byte) ([]recipes.Page, int, *pdftext.Quality, error) {
	texts, pageCount, err := pdftext.ExtractBytes(pdfBytes)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("text layer extraction failed: %w", err)
	}

	pages := make([]recipes.Page, 0, pageCount)
	for _, t := range texts {
		pages = append(pages, recipes.Page{Number: t.Page, Items: t.Items, RawText: t.Text})
	}

	quality, err := pdftext.AssessQuality(pdfBytes, texts)
	if err != nil {
		pl.logger.Warn("quality assessment failed, skipping OCR gate", zap.Error(err))
		return pages, pageCount, nil, nil
	}

	if pl.provider == nil || !pl.tuning.OCREnabled || !quality.NeedsOCR() {
		return pages, pageCount, quality, nil
	}

	pl.logger.Info("text layer insufficient, running OCR",
		zap.Float64("chars_per_page", quality.CharsPerPage),
		zap.Float64("printable_ratio", quality.PrintableRatio))

	ocrPages, err := pl.provider.OcrPages(ctx, pdfBytes, nil)
	if err != nil {
		pl.logger.Warn("OCR failed, continuing with native layer", zap.Error(err))
		return pages, pageCount, quality, nil
	}

	byPage := make(map[int]ocr.PageResult, len(ocrPages))
	for _, op := range ocrPages {
		byPage[op.Page] = op
	}
	for i := range pages {
		op, ok := byPage[pages[i].Number]
		if !ok || op.Confidence < pl.tuning.MinOCRConfidence {
			continue
		}
		// OCR replaces a page only when it found more than the layer did.
		if len(op.Items) <= len(pages[i].Items) {
			continue
		}
		pages[i].Items = op.Items
		pages[i].RawText = op.Text
		pages[i].OCRUsed = true
		pages[i].OCRConfidence = op.Confidence
	}
	return pages, pageCount, quality, nil
}

// upgradeSheetTitles re-recognizes low-confidence title blocks with a
// crop OCR pass, replacing OCR_CROP placeholder entries when the crop
// yields a real drawing number or title.
func (pl *Pipeline) upgradeSheetTitles(ctx context.Context, pdfBytes []byte, index *sheets.SheetIndex, itemsByPage map[int][]layout.TextItem) {
	if pl.provider == nil || !pl.tuning.OCREnabled || !pl.tuning.TitleBlockOCR {
		return
	}
	for page, info := range index.Sheets {
		if info.Method != sheets.MethodOCRCrop {
			continue
		}
		items := itemsByPage[page]
		crop := titleBlockCrop(page, items)
		res, err := pl.provider.OcrCrop(ctx, pdfBytes, crop)
		if err != nil {
			pl.logger.Warn("title block OCR failed", zap.Int("page", page), zap.Error(err))
			continue
		}
		if len(res.Items) == 0 {
			continue
		}
		upgraded := sheets.ClassifyItems(page, res.Items)
		if upgraded.DrawingNumber != "" || upgraded.DrawingTitle != "" {
			upgraded.Method = sheets.MethodOCRCrop
			if upgraded.Confidence > info.Confidence {
				index.Replace(upgraded)
			}
		}
	}
}

// titleBlockCrop bounds the bottom strip of the page. Without items to
// measure, fall back to US Arch D landscape points.
func titleBlockCrop(page int, items []layout.TextItem) ocr.Crop {
	maxX, maxY := 2592.0, 1728.0
	if len(items) > 0 {
		bbox := layout.ItemsBBox(items)
		maxX, maxY = bbox.X2, bbox.Y2
	}
	return ocr.Crop{Page: page, X1: 0, Y1: 0, X2: maxX, Y2: 0.2 * maxY}
}

// runRecipes executes every dispatched recipe concurrently and returns
// results ordered by recipe group's first page, so downstream merges
// see document order no matter how the goroutines finish.
func (pl *Pipeline) runRecipes(ctx context.Context, groups map[recipes.Type][]int, pages []recipes.Page) ([]recipes.Result, error) {
	byNumber := make(map[int]recipes.Page, len(pages))
	for _, p := range pages {
		byNumber[p.Number] = p
	}

	type slot struct {
		order int
		res   recipes.Result
	}

	g, ctx := errgroup.WithContext(ctx)
	out := make([]slot, 0, len(groups))
	results := make(chan slot, len(groups))

	for recipe, pageNums := range groups {
		group := make([]recipes.Page, 0, len(pageNums))
		for _, n := range pageNums {
			if p, ok := byNumber[n]; ok {
				group = append(group, p)
			}
		}
		first := 1 << 30
		if len(pageNums) > 0 {
			first = pageNums[0]
		}
		recipe := recipe
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results <- slot{order: first, res: recipes.Run(recipe, group)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(results)
	for s := range results {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].order < out[j].order })

	merged := make([]recipes.Result, len(out))
	for i, s := range out {
		merged[i] = s.res
	}
	return merged, nil
}

// reconcileAndScore applies the reconciliation passes and writes the
// final confidence into the extract.
func (pl *Pipeline) reconcileAndScore(ex *normalize.NormalizedPlanExtract, pages []recipes.Page, pluto *confidence.PlutoRecord) {
	// Cover sheets are the primary declared-units source; when none
	// yielded a count, scan every page for the phrase patterns.
	if ex.DeclaredUnits == 0 {
		for _, p := range pages {
			n, line, ok := recipes.DeclaredUnits(p.Lines())
			if !ok {
				continue
			}
			ex.DeclaredUnits = n
			ex.Evidence = append(ex.Evidence, recipes.Evidence{
				Field:   "declared_units",
				Page:    p.Number,
				Method:  "page-scan",
				Snippet: units.Truncate(line),
			})
			break
		}
	}

	ex.Units = reconcile.ApplyFloorInference(ex.Units)
	ex.Units = reconcile.ApplyBedroomInference(ex.Units, ex.ZoningDistrict)

	outcome := reconcile.Sanitize(ex.Units, ex.DeclaredUnits)
	ex.Units = outcome.Records
	ex.Totals = outcome.Totals
	ex.SizeStats = normalize.ComputeSizeStats(ex.Units)
	ex.Warnings = append(ex.Warnings, outcome.Warnings...)

	avgSF := make(map[string]float64, len(ex.SizeStats))
	for bt, s := range ex.SizeStats {
		avgSF[bt] = s.AvgSF
	}

	base := confidence.Overall(pl.pageSignals(ex, pages))
	fig := confidence.Figures{
		LotAreaSF:     ex.Figures.LotAreaSF,
		ZFASF:         ex.Figures.ZFASF,
		FAR:           ex.Figures.FAR,
		TotalUnits:    ex.Totals.TotalUnits,
		DeclaredUnits: ex.DeclaredUnits,
		AvgUnitSF:     avgSF,
	}
	adjusted, findings := confidence.Validate(base, fig, pluto)
	for _, f := range findings {
		ex.Warnings = append(ex.Warnings, f.Detail)
	}
	if outcome.Capped && adjusted > reconcile.MaxCappedConfidence {
		adjusted = reconcile.MaxCappedConfidence
	}
	ex.Confidence = adjusted
}

// pageSignals derives per-page confidence signals from the final
// record set and page structure. Totals figures stated on different
// pages that disagree mark every totals-stating page as conflicted.
func (pl *Pipeline) pageSignals(ex *normalize.NormalizedPlanExtract, pages []recipes.Page) []confidence.PageSignals {
	rowsByPage := make(map[int]int)
	for _, u := range ex.Units {
		rowsByPage[u.Source.Page]++
	}

	type statedTotal struct {
		signal int
		count  int
	}
	var stated []statedTotal

	var signals []confidence.PageSignals
	for _, p := range pages {
		s := confidence.PageSignals{
			RowCount:      rowsByPage[p.Number],
			OCRUsed:       p.OCRUsed,
			OCRConfidence: p.OCRConfidence,
		}
		for _, region := range tables.Reconstruct(p.Items, p.Number) {
			mapping := units.InferColumnMapping(region.Header.CellTexts())
			if mapping.Mapped() > s.MappedColumns {
				s.MappedColumns = mapping.Mapped()
			}
			dataRows := 0
			regionTotal, hasTotal := 0, false
			for _, row := range region.Rows {
				if tables.IsTotalsRow(row.Text()) {
					s.TotalsFound = true
					if n, ok := tables.TotalsCount(row.Text()); ok {
						regionTotal, hasTotal = n, true
					}
					continue
				}
				dataRows++
			}
			if hasTotal {
				if regionTotal == dataRows {
					s.TotalsConsistent = true
				}
				stated = append(stated, statedTotal{signal: len(signals), count: regionTotal})
			}
		}
		signals = append(signals, s)
	}

	distinct := make(map[int]bool)
	for _, st := range stated {
		distinct[st.count] = true
	}
	if len(distinct) > 1 {
		for _, st := range stated {
			signals[st.signal].Conflict = true
		}
	}
	return signals
}
