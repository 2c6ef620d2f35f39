package layout

// TextItem is a single positioned text run on a PDF page.
//
// Coordinates are in PDF point space with the origin at the bottom-left
// corner of the page: X grows rightward, Y grows upward. Items are
// produced by the text-layer extractor or by an OCR provider and are
// never mutated once created.
type TextItem struct {
	Str    string  // text content of the run
	Page   int     // 1-based page number
	X      float64 // left edge
	Y      float64 // baseline / bottom edge
	Width  float64
	Height float64
}

// EndX returns the right edge of the item.
func (t TextItem) EndX() float64 {
	return t.X + t.Width
}

// Line is an ordered run of items sharing a Y-band on one page,
// concatenated left to right into normalized text.
type Line struct {
	Page  int
	Y     float64 // reference Y of the band (Y of the first clustered item)
	Text  string
	Items []TextItem
}

// Cell is a horizontal slice of a line, split on oversized X-gaps.
type Cell struct {
	Text  string
	X     float64 // left edge of the first item in the cell
	EndX  float64 // right edge of the last item in the cell
	Items []TextItem
}

// BBox is an axis-aligned bounding rectangle in page coordinates.
type BBox struct {
	X1, Y1 float64 // lower-left
	X2, Y2 float64 // upper-right
}

// Union grows the box to include another box.
func (b BBox) Union(o BBox) BBox {
	if o.X1 < b.X1 {
		b.X1 = o.X1
	}
	if o.Y1 < b.Y1 {
		b.Y1 = o.Y1
	}
	if o.X2 > b.X2 {
		b.X2 = o.X2
	}
	if o.Y2 > b.Y2 {
		b.Y2 = o.Y2
	}
	return b
}

// ItemsBBox computes the bounding box of a set of items.
// Returns the zero box for an empty set.
func ItemsBBox(items []TextItem) BBox {
	if len(items) == 0 {
		return BBox{}
	}
	box := BBox{X1: items[0].X, Y1: items[0].Y, X2: items[0].EndX(), Y2: items[0].Y + items[0].Height}
	for _, it := range items[1:] {
		box = box.Union(BBox{X1: it.X, Y1: it.Y, X2: it.EndX(), Y2: it.Y + it.Height})
	}
	return box
}
