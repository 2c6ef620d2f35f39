package ocr

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"

	"github.com/plansift/plansift/pkg/layout"
)

// ParseHOCR reads hOCR output (Tesseract and compatible engines) and
// flattens each ocr_page into a PageResult. hOCR pixel coordinates are
// top-left origin; items are flipped against the page height to the
// y-up origin the layout package expects. Page numbers come from the
// ppageno title property when present, else document order.
func ParseHOCR(data []byte) ([]PageResult, error) {
	decoded, err := decodeCharset(data)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(strings.NewReader(string(decoded)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse hOCR markup: %w", err)
	}

	var results []PageResult
	var findPages func(*html.Node)
	findPages = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "div" &&
			strings.Contains(attrVal(n, "class"), "ocr_page") {
			results = append(results, flattenHOCRPage(n, len(results)+1))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findPages(c)
		}
	}
	findPages(doc)

	if len(results) == 0 {
		return nil, fmt.Errorf("no ocr_page elements found in hOCR data")
	}
	return results, nil
}

// decodeCharset converts Latin-1 hOCR output to UTF-8 when the markup
// declares a non-UTF-8 charset.
func decodeCharset(data []byte) ([]byte, error) {
	content := string(data)
	idx := strings.Index(content, "charset=")
	if idx < 0 {
		return data, nil
	}
	snippet := content[idx+len("charset="):]
	if len(snippet) > 20 {
		snippet = snippet[:20]
	}
	fields := strings.FieldsFunc(snippet, func(r rune) bool {
		return r == '"' || r == ';' || r == '\'' || r == '>'
	})
	if len(fields) == 0 || strings.EqualFold(fields[0], "utf-8") {
		return data, nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s hOCR: %w", fields[0], err)
	}
	return decoded, nil
}

// flattenHOCRPage walks one ocr_page and collects its words as
// positioned items, skipping the area/paragraph/line hierarchy hOCR
// wraps them in.
func flattenHOCRPage(n *html.Node, fallbackNo int) PageResult {
	res := PageResult{Page: fallbackNo}

	props := parseTitle(attrVal(n, "title"))
	if pp, ok := props["ppageno"]; ok && len(pp) > 0 {
		// hOCR page numbers are zero-based.
		if v, err := strconv.Atoi(pp[0]); err == nil {
			res.Page = v + 1
		}
	}
	var pageH float64
	if bbox, ok := props["bbox"]; ok && len(bbox) >= 4 {
		pageH, _ = strconv.ParseFloat(bbox[3], 64)
	}

	var sb strings.Builder
	var confSum float64
	var confN int

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			class := attrVal(node, "class")
			if strings.Contains(class, "ocrx_word") {
				if item, conf, ok := hocrWordItem(node, res.Page, pageH); ok {
					res.Items = append(res.Items, item)
					if sb.Len() > 0 {
						sb.WriteByte(' ')
					}
					sb.WriteString(item.Str)
					confSum += conf
					confN++
				}
				return
			}
			if strings.Contains(class, "ocr_line") {
				defer sb.WriteByte('\n')
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}

	res.Text = strings.TrimSpace(sb.String())
	if confN > 0 {
		res.Confidence = confSum / float64(confN)
	}
	return res
}

// hocrWordItem converts one ocrx_word span into a positioned item.
func hocrWordItem(n *html.Node, page int, pageH float64) (layout.TextItem, float64, bool) {
	text := strings.TrimSpace(textContent(n))
	if text == "" {
		return layout.TextItem{}, 0, false
	}
	props := parseTitle(attrVal(n, "title"))
	bbox, ok := props["bbox"]
	if !ok || len(bbox) < 4 {
		return layout.TextItem{}, 0, false
	}
	x1, _ := strconv.ParseFloat(bbox[0], 64)
	y1, _ := strconv.ParseFloat(bbox[1], 64)
	x2, _ := strconv.ParseFloat(bbox[2], 64)
	y2, _ := strconv.ParseFloat(bbox[3], 64)

	conf := 0.0
	if wc, ok := props["x_wconf"]; ok && len(wc) > 0 {
		conf, _ = strconv.ParseFloat(wc[0], 64)
	}

	y := y1
	if pageH > 0 {
		y = pageH - y2 // flip to bottom-left origin
	}
	return layout.TextItem{
		Str:    text,
		Page:   page,
		X:      x1,
		Y:      y,
		Width:  x2 - x1,
		Height: y2 - y1,
	}, conf, true
}

// parseTitle splits an hOCR title attribute ("bbox 0 0 10 10; x_wconf
// 95") into its property lists.
func parseTitle(title string) map[string][]string {
	props := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) > 0 {
			props[fields[0]] = fields[1:]
		}
	}
	return props
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

func attrVal(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
