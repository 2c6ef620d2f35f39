package ocr

import (
	"strings"
	"testing"
)

const sampleHOCR = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" lang="en">
 <head>
  <title></title>
  <meta http-equiv="Content-Type" content="text/html;charset=utf-8"/>
  <meta name="ocr-system" content="tesseract 5.3.0"/>
 </head>
 <body>
  <div class="ocr_page" id="page_1" title="image &quot;sheet.png&quot;; bbox 0 0 2550 3300; ppageno 0">
   <div class="ocr_carea" id="block_1_1" title="bbox 100 100 900 200">
    <p class="ocr_par" id="par_1_1" title="bbox 100 100 900 200">
     <span class="ocr_line" id="line_1_1" title="bbox 100 100 900 160; baseline 0 -10">
      <span class="ocrx_word" id="word_1_1" title="bbox 100 100 400 160; x_wconf 96">UNIT</span>
      <span class="ocrx_word" id="word_1_2" title="bbox 420 100 700 160; x_wconf 88">SCHEDULE</span>
     </span>
    </p>
   </div>
  </div>
 </body>
</html>`

func TestParseHOCR(t *testing.T) {
	results, err := ParseHOCR([]byte(sampleHOCR))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("pages = %d, want 1", len(results))
	}
	page := results[0]
	if page.Page != 1 {
		t.Errorf("page number = %d, want 1 (ppageno 0 is zero-based)", page.Page)
	}
	if len(page.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(page.Items))
	}
	if page.Items[0].Str != "UNIT" || page.Items[1].Str != "SCHEDULE" {
		t.Errorf("items = %v", page.Items)
	}
	// bbox 100 100 400 160 on a 3300-high page flips to y = 3300-160.
	if page.Items[0].Y != 3140 {
		t.Errorf("Y = %v, want 3140 (bottom-left origin)", page.Items[0].Y)
	}
	if page.Items[0].X != 100 || page.Items[0].Width != 300 || page.Items[0].Height != 60 {
		t.Errorf("geometry = %+v", page.Items[0])
	}
	if page.Confidence != 92 {
		t.Errorf("confidence = %v, want mean 92", page.Confidence)
	}
	if !strings.Contains(page.Text, "UNIT SCHEDULE") {
		t.Errorf("text = %q", page.Text)
	}
}

func TestParseHOCR_NoPages(t *testing.T) {
	if _, err := ParseHOCR([]byte("<html><body></body></html>")); err == nil {
		t.Error("expected error for page-free markup")
	}
}

func TestFilterItemsToCrop(t *testing.T) {
	results, err := ParseHOCR([]byte(sampleHOCR))
	if err != nil {
		t.Fatal(err)
	}
	crop := Crop{Page: 1, X1: 0, Y1: 3000, X2: 410, Y2: 3300}
	got := FilterItemsToCrop(results[0].Items, crop)
	if len(got) != 1 || got[0].Str != "UNIT" {
		t.Errorf("filtered = %v, want just UNIT", got)
	}
}
