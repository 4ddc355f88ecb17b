package docx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/amaumene/syllabus-merge/internal/domain"
)

// RunStyle is the character formatting applied to an inserted run.
type RunStyle struct {
	Font       string
	// HalfPoints is the font size in half-points, as stored in w:sz.
	HalfPoints int
	Bold       bool
}

// TitleStyle is the formatting of the prepended title: Cambria, 11pt, bold.
var TitleStyle = RunStyle{Font: "Cambria", HalfPoints: 22, Bold: true}

// Points returns the size in points.
func (s RunStyle) Points() float64 {
	return float64(s.HalfPoints) / 2
}

// Run is a decoded w:r element.
type Run struct {
	Text  string
	Style RunStyle
}

// Paragraph is a decoded body-level w:p element. Raw holds its exact bytes
// in the main part.
type Paragraph struct {
	Raw  []byte
	Runs []Run
}

// Text concatenates the text of the paragraph's runs.
func (p Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Paragraphs decodes the body-level paragraphs in document order.
func (d *Document) Paragraphs() ([]Paragraph, error) {
	spans, err := d.bodyParagraphs()
	if err != nil {
		return nil, err
	}

	paras := make([]Paragraph, 0, len(spans))
	for _, s := range spans {
		raw := d.main[s.start:s.end]
		runs, err := d.decodeRuns(raw)
		if err != nil {
			return nil, err
		}
		paras = append(paras, Paragraph{Raw: bytes.Clone(raw), Runs: runs})
	}
	return paras, nil
}

// decodeRuns reads the runs that are direct children of one paragraph.
// Only the properties this package writes are decoded.
func (d *Document) decodeRuns(raw []byte) ([]Run, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))

	var runs []Run
	var cur *Run
	var stack []string

	parent := func(n int) string {
		if len(stack) < n {
			return ""
		}
		return stack[len(stack)-n]
	}

	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &domain.DocumentParseError{Reason: "malformed paragraph", Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			local := ""
			if t.Name.Space == d.ns.elem {
				local = t.Name.Local
			}

			switch {
			case local == "r" && len(stack) == 1 && parent(1) == "p":
				cur = &Run{}
			case cur != nil && parent(1) == "rPr" && parent(2) == "r":
				d.applyProperty(cur, local, t.Attr)
			case cur != nil && parent(1) == "r":
				switch local {
				case "tab":
					cur.Text += "\t"
				case "br", "cr":
					cur.Text += "\n"
				}
			}
			stack = append(stack, local)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, &domain.DocumentParseError{Reason: "malformed paragraph: unbalanced elements"}
			}
			local := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if local == "r" && len(stack) == 1 && cur != nil {
				runs = append(runs, *cur)
				cur = nil
			}
		case xml.CharData:
			if cur != nil && parent(1) == "t" && parent(2) == "r" {
				cur.Text += string(t)
			}
		}
	}
	return runs, nil
}

func (d *Document) applyProperty(r *Run, local string, attrs []xml.Attr) {
	switch local {
	case "rFonts":
		if v, ok := d.attr(attrs, "ascii"); ok {
			r.Style.Font = v
		}
	case "b":
		v, ok := d.attr(attrs, "val")
		r.Style.Bold = !ok || onOff(v)
	case "sz":
		if v, ok := d.attr(attrs, "val"); ok {
			if n, err := strconv.Atoi(v); err == nil {
				r.Style.HalfPoints = n
			}
		}
	}
}

func (d *Document) attr(attrs []xml.Attr, local string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Local == local && a.Name.Space == d.ns.attr {
			return a.Value, true
		}
	}
	return "", false
}

func onOff(v string) bool {
	switch strings.ToLower(v) {
	case "0", "false", "off":
		return false
	}
	return true
}

// paragraphXML renders a paragraph with one run of text. Tabs and line
// breaks become w:tab and w:br inside the run.
func paragraphXML(ns wordNS, text string, style RunStyle) []byte {
	q := func(local string) string {
		if ns.elem == "" {
			return local
		}
		return ns.elem + ":" + local
	}
	a := func(local string) string {
		return ns.attr + ":" + local
	}

	var buf bytes.Buffer
	buf.WriteString("<" + q("p"))
	if ns.declare {
		buf.WriteString(" xmlns:" + ns.attr + `="`)
		xml.EscapeText(&buf, []byte(ns.uri))
		buf.WriteString(`"`)
	}
	buf.WriteString("><" + q("r") + ">")

	if style.Font != "" || style.Bold || style.HalfPoints > 0 {
		buf.WriteString("<" + q("rPr") + ">")
		if style.Font != "" {
			buf.WriteString("<" + q("rFonts") + " " + a("ascii") + `="`)
			xml.EscapeText(&buf, []byte(style.Font))
			buf.WriteString(`" ` + a("hAnsi") + `="`)
			xml.EscapeText(&buf, []byte(style.Font))
			buf.WriteString(`"/>`)
		}
		if style.Bold {
			buf.WriteString("<" + q("b") + "/>")
		}
		if style.HalfPoints > 0 {
			buf.WriteString("<" + q("sz") + " " + a("val") + `="` + strconv.Itoa(style.HalfPoints) + `"/>`)
		}
		buf.WriteString("</" + q("rPr") + ">")
	}

	var segment strings.Builder
	flush := func() {
		if segment.Len() == 0 {
			return
		}
		buf.WriteString("<" + q("t") + ` xml:space="preserve">`)
		xml.EscapeText(&buf, []byte(segment.String()))
		buf.WriteString("</" + q("t") + ">")
		segment.Reset()
	}

	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	for _, c := range normalized {
		switch c {
		case '\t':
			flush()
			buf.WriteString("<" + q("tab") + "/>")
		case '\n', '\r':
			flush()
			buf.WriteString("<" + q("br") + "/>")
		default:
			segment.WriteRune(c)
		}
	}
	flush()

	buf.WriteString("</" + q("r") + "></" + q("p") + ">")
	return buf.Bytes()
}
