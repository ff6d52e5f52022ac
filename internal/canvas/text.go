package canvas

import (
	"encoding/xml"
	"fmt"
	"image"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/example/snapmark/internal/colour"
)

// DefaultTextSize is used when a font description has no size.
const DefaultTextSize = 16

// FontDescription names a font the way "Go Bold Italic 16" does: a family,
// optional style words and an optional point size.
type FontDescription struct {
	Family string
	Bold   bool
	Italic bool
	Size   float64
}

// ParseFontDescription parses descriptions such as "Sans 12" or
// "Go Mono Bold 20". Unknown words become part of the family name.
func ParseFontDescription(s string) FontDescription {
	desc := FontDescription{Size: DefaultTextSize}
	var family []string
	for _, word := range strings.Fields(s) {
		switch strings.ToLower(word) {
		case "bold", "heavy":
			desc.Bold = true
			continue
		case "italic", "oblique":
			desc.Italic = true
			continue
		case "regular", "normal", "book":
			continue
		}
		if size, err := strconv.ParseFloat(strings.TrimSuffix(word, "px"), 64); err == nil && size > 0 {
			desc.Size = size
			continue
		}
		family = append(family, word)
	}
	desc.Family = strings.Join(family, " ")
	if desc.Family == "" {
		desc.Family = "Go"
	}
	return desc
}

func (d FontDescription) String() string {
	parts := []string{d.Family}
	if d.Bold {
		parts = append(parts, "Bold")
	}
	if d.Italic {
		parts = append(parts, "Italic")
	}
	parts = append(parts, strconv.FormatFloat(d.Size, 'f', -1, 64))
	return strings.Join(parts, " ")
}

func (d FontDescription) mono() bool {
	f := strings.ToLower(d.Family)
	return strings.Contains(f, "mono") || strings.Contains(f, "courier") || strings.Contains(f, "fixed")
}

type faceKey struct {
	mono, bold, italic bool
	size               float64
}

var (
	parsedFonts sync.Map // faceKey with zero size -> *opentype.Font
	faceCache   *lru.Cache
)

func init() {
	var err error
	faceCache, err = lru.New(32)
	if err != nil {
		panic(err)
	}
}

func fontData(mono, bold, italic bool) []byte {
	switch {
	case mono && bold && italic:
		return gomonobolditalic.TTF
	case mono && bold:
		return gomonobold.TTF
	case mono && italic:
		return gomonoitalic.TTF
	case mono:
		return gomono.TTF
	case bold && italic:
		return gobolditalic.TTF
	case bold:
		return gobold.TTF
	case italic:
		return goitalic.TTF
	}
	return goregular.TTF
}

func faceFor(key faceKey) font.Face {
	if f, ok := faceCache.Get(key); ok {
		return f.(font.Face)
	}
	fontKey := faceKey{mono: key.mono, bold: key.bold, italic: key.italic}
	var parsed *opentype.Font
	if v, ok := parsedFonts.Load(fontKey); ok {
		parsed = v.(*opentype.Font)
	} else {
		var err error
		parsed, err = opentype.Parse(fontData(key.mono, key.bold, key.italic))
		if err != nil {
			log.Printf("parse font: %v", err)
			return nil
		}
		parsedFonts.Store(fontKey, parsed)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: key.size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Printf("font face %.1fpt: %v", key.size, err)
		return nil
	}
	faceCache.Add(key, face)
	return face
}

// Run is a span of text sharing one style.
type Run struct {
	Text   string
	Bold   bool
	Italic bool
	Mono   bool
	// Colour overrides the context source when set.
	Colour *colour.Colour
}

// Layout is text broken into lines of styled runs.
type Layout struct {
	Lines [][]Run
	Font  FontDescription
}

// NewLayout parses markup into a layout. Supported tags are b, i, tt and
// span with foreground, font_weight and style attributes. Text that is not
// well-formed markup is laid out literally.
func NewLayout(markup string, desc FontDescription) *Layout {
	runs, err := parseMarkup(markup, desc)
	if err != nil {
		runs = []Run{{Text: markup, Bold: desc.Bold, Italic: desc.Italic, Mono: desc.mono()}}
	}
	l := &Layout{Font: desc, Lines: [][]Run{nil}}
	for _, r := range runs {
		parts := strings.Split(r.Text, "\n")
		for i, part := range parts {
			if i > 0 {
				l.Lines = append(l.Lines, nil)
			}
			if part == "" {
				continue
			}
			piece := r
			piece.Text = part
			l.Lines[len(l.Lines)-1] = append(l.Lines[len(l.Lines)-1], piece)
		}
	}
	return l
}

func parseMarkup(markup string, desc FontDescription) ([]Run, error) {
	dec := xml.NewDecoder(strings.NewReader("<markup>" + markup + "</markup>"))
	base := Run{Bold: desc.Bold, Italic: desc.Italic, Mono: desc.mono()}
	stack := []Run{base}
	var runs []Run
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("markup: %w", err)
		}
		top := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			next := top
			switch t.Name.Local {
			case "b":
				next.Bold = true
			case "i":
				next.Italic = true
			case "tt":
				next.Mono = true
			case "span":
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "foreground", "color", "fgcolor":
						if c, err := colour.Parse(attr.Value); err == nil {
							next.Colour = &c
						}
					case "font_weight", "weight":
						next.Bold = attr.Value == "bold" || attr.Value == "heavy"
					case "style", "font_style":
						next.Italic = attr.Value == "italic" || attr.Value == "oblique"
					}
				}
			case "markup":
			default:
				return nil, fmt.Errorf("markup: unknown tag <%s>", t.Name.Local)
			}
			stack = append(stack, next)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			r := top
			r.Text = string(t)
			runs = append(runs, r)
		}
	}
	return runs, nil
}

// Text returns the layout without markup.
func (l *Layout) Text() string {
	lines := make([]string, len(l.Lines))
	for i, line := range l.Lines {
		var sb strings.Builder
		for _, r := range line {
			sb.WriteString(r.Text)
		}
		lines[i] = sb.String()
	}
	return strings.Join(lines, "\n")
}

func (l *Layout) face(r Run) font.Face {
	return faceFor(faceKey{mono: r.Mono, bold: r.Bold, italic: r.Italic, size: l.Font.Size})
}

func (l *Layout) metrics() (ascent, height fixed.Int26_6) {
	face := l.face(Run{Mono: l.Font.mono()})
	if face == nil {
		return 0, 0
	}
	m := face.Metrics()
	return m.Ascent, m.Height
}

// Size returns the pixel extent of the laid out text.
func (l *Layout) Size() (width, height int) {
	_, lineHeight := l.metrics()
	var widest fixed.Int26_6
	for _, line := range l.Lines {
		var w fixed.Int26_6
		for _, r := range line {
			if face := l.face(r); face != nil {
				w += font.MeasureString(face, r.Text)
			}
		}
		if w > widest {
			widest = w
		}
	}
	return widest.Ceil(), (lineHeight * fixed.Int26_6(len(l.Lines))).Ceil()
}

// ShowLayout draws l with its top-left corner at the current point. Only
// the translation part of the transform applies to text.
func (c *Context) ShowLayout(l *Layout) error {
	if c.st.sourceIsRGB {
		return graphicsErr("show_layout", errImageSource)
	}
	if !c.hasCur {
		return graphicsErr("show_layout", ErrNoCurrentPoint)
	}
	ascent, lineHeight := l.metrics()
	origin := fixed.Point26_6{X: toFixedLen(c.cur[0]), Y: toFixedLen(c.cur[1]) + ascent}
	for i, line := range l.Lines {
		dot := fixed.Point26_6{X: origin.X, Y: origin.Y + lineHeight*fixed.Int26_6(i)}
		for _, r := range line {
			face := l.face(r)
			if face == nil {
				continue
			}
			src := c.st.source
			if r.Colour != nil {
				src = image.NewUniform(*r.Colour)
			}
			d := &font.Drawer{Dst: c.target, Src: src, Face: face, Dot: dot}
			d.DrawString(r.Text)
			dot = d.Dot
		}
	}
	return nil
}
