package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/plansift/plansift/pkg/layout"
)

// DocAIConfig identifies the Document AI processor to call.
type DocAIConfig struct {
	ProjectID   string
	Location    string
	ProcessorID string
}

// DocAIProvider recognizes pages through Google Document AI.
type DocAIProvider struct {
	cfg DocAIConfig
}

// NewDocAIProvider validates the processor coordinates and returns a
// provider. The client itself is created per call; Document AI
// connections are not worth pooling at drawing-set volumes.
func NewDocAIProvider(cfg DocAIConfig) (*DocAIProvider, error) {
	if cfg.ProjectID == "" || cfg.Location == "" || cfg.ProcessorID == "" {
		return nil, fmt.Errorf("docai: project, location, and processor are all required")
	}
	return &DocAIProvider{cfg: cfg}, nil
}

// SupportsTables reports false: Document AI's OCR processor returns
// tokens, not table structure.
func (p *DocAIProvider) SupportsTables() bool { return false }

// OcrPages sends the PDF to Document AI and flattens each returned page
// into a PageResult. Token geometry arrives as vertices normalized to
// the page image with a top-left origin; items are rescaled by the page
// dimension and flipped to the bottom-left origin layout clustering
// expects. The pages argument filters the response; Document AI always
// processes the whole document.
func (p *DocAIProvider) OcrPages(ctx context.Context, pdfBytes []byte, pages []int) ([]PageResult, error) {
	doc, err := p.process(ctx, pdfBytes)
	if err != nil {
		return nil, err
	}

	wanted := make(map[int]bool, len(pages))
	for _, n := range pages {
		wanted[n] = true
	}

	var results []PageResult
	for i, page := range doc.Pages {
		pageNo := int(page.PageNumber)
		if pageNo == 0 {
			pageNo = i + 1
		}
		if len(wanted) > 0 && !wanted[pageNo] {
			continue
		}
		results = append(results, flattenPage(doc, page, pageNo))
	}
	return results, nil
}

// OcrCrop runs whole-page recognition and filters the tokens to the
// crop bounds. Document AI has no region API, so the crop is a view,
// not a re-recognition.
func (p *DocAIProvider) OcrCrop(ctx context.Context, pdfBytes []byte, crop Crop) (PageResult, error) {
	results, err := p.OcrPages(ctx, pdfBytes, []int{crop.Page})
	if err != nil {
		return PageResult{}, err
	}
	if len(results) == 0 {
		return PageResult{Page: crop.Page}, nil
	}
	res := results[0]
	res.Items = FilterItemsToCrop(res.Items, crop)
	return res, nil
}

func (p *DocAIProvider) process(ctx context.Context, pdfBytes []byte) (*documentaipb.Document, error) {
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", p.cfg.Location)

	client, err := documentai.NewDocumentProcessorClient(
		ctx,
		option.WithEndpoint(endpoint),
		option.WithCredentialsFile(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}
	defer client.Close()

	name := fmt.Sprintf(
		"projects/%s/locations/%s/processors/%s",
		p.cfg.ProjectID, p.cfg.Location, p.cfg.ProcessorID,
	)

	req := &documentaipb.ProcessRequest{
		Name: name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  pdfBytes,
				MimeType: "application/pdf",
			},
		},
		SkipHumanReview: true,
	}

	resp, err := client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to process document: %w", err)
	}
	return resp.Document, nil
}

// flattenPage converts one Document AI page into a PageResult.
func flattenPage(doc *documentaipb.Document, page *documentaipb.Document_Page, pageNo int) PageResult {
	res := PageResult{Page: pageNo}

	var width, height float64
	if page.Dimension != nil {
		width = float64(page.Dimension.Width)
		height = float64(page.Dimension.Height)
	}

	var confSum float64
	var confN int
	for _, token := range page.Tokens {
		text := strings.TrimSpace(anchorText(doc, token.Layout))
		if text == "" {
			continue
		}
		item, ok := tokenItem(token.Layout, text, pageNo, width, height)
		if !ok {
			continue
		}
		res.Items = append(res.Items, item)
		confSum += float64(token.Layout.Confidence)
		confN++
	}
	if confN > 0 {
		res.Confidence = confSum / float64(confN) * 100
	}

	if page.Layout != nil {
		res.Text = anchorText(doc, page.Layout)
	}
	return res
}

// anchorText resolves a layout's text anchor against the document text.
func anchorText(doc *documentaipb.Document, l *documentaipb.Document_Page_Layout) string {
	if l == nil || l.TextAnchor == nil {
		return ""
	}
	text := ""
	for _, seg := range l.TextAnchor.TextSegments {
		start := int(seg.StartIndex)
		end := int(seg.EndIndex)
		if start < 0 || end > len(doc.Text) || start >= end {
			continue
		}
		text += doc.Text[start:end]
	}
	return text
}

// tokenItem maps a token's normalized bounding polygon onto PDF-point
// geometry with a y-up origin.
func tokenItem(l *documentaipb.Document_Page_Layout, text string, pageNo int, width, height float64) (layout.TextItem, bool) {
	if l == nil || l.BoundingPoly == nil || width == 0 || height == 0 {
		return layout.TextItem{}, false
	}
	verts := l.BoundingPoly.NormalizedVertices
	if len(verts) < 4 {
		return layout.TextItem{}, false
	}

	minX, minY := float64(verts[0].X), float64(verts[0].Y)
	maxX, maxY := minX, minY
	for _, v := range verts[1:] {
		x, y := float64(v.X), float64(v.Y)
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}

	return layout.TextItem{
		Str:    text,
		Page:   pageNo,
		X:      minX * width,
		Y:      (1 - maxY) * height, // top-left normalized -> bottom-left points
		Width:  (maxX - minX) * width,
		Height: (maxY - minY) * height,
	}, true
}
