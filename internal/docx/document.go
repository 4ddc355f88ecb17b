package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/amaumene/syllabus-merge/internal/domain"
)

const (
	// ContentType is the MIME type of a word-processing package.
	ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	wordprocessingNS       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	wordprocessingStrictNS = "http://purl.oclc.org/ooxml/wordprocessingml/main"

	packageRelsPart   = "_rels/.rels"
	defaultMainPart   = "word/document.xml"
	officeDocumentRel = "/officeDocument"

	maxMainPartBytes = 64 << 20
)

// Document is an opened word-processing package. Only the main document
// part is held decoded; every other part is copied through untouched when
// the package is written back.
type Document struct {
	files    []*zip.File
	comment  string
	mainPart string
	main     []byte
	ns       wordNS
}

// wordNS records how the main part spells the wordprocessingml namespace.
// elem qualifies element names and may be empty when the namespace is the
// default. Attributes are never covered by a default namespace, so attr is
// always a real prefix; declare is set when the root does not bind one and
// inserted markup must declare it locally.
type wordNS struct {
	uri     string
	elem    string
	attr    string
	declare bool
}

// span is the byte range of one element inside the main part.
type span struct {
	start, end int64
}

// Open parses data as an OOXML word-processing package.
func Open(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &domain.DocumentParseError{Reason: "not a zip package", Err: err}
	}

	doc := &Document{
		files:   zr.File,
		comment: zr.Comment,
	}

	mainPart, err := findMainPart(zr)
	if err != nil {
		return nil, err
	}
	doc.mainPart = mainPart

	if doc.main, err = readPart(zr, mainPart); err != nil {
		return nil, err
	}

	if doc.ns, err = wordNamespace(doc.main); err != nil {
		return nil, err
	}

	// The scan rejects mismatched and unclosed tags, so a part that opens
	// cleanly stays well-formed after a splice.
	if _, err := doc.bodyParagraphs(); err != nil {
		return nil, err
	}
	return doc, nil
}

// MainPart returns the package path of the main document part.
func (d *Document) MainPart() string {
	return d.mainPart
}

// ParagraphCount returns the number of paragraphs directly in the body.
func (d *Document) ParagraphCount() (int, error) {
	spans, err := d.bodyParagraphs()
	if err != nil {
		return 0, err
	}
	return len(spans), nil
}

// PrependParagraph inserts a paragraph holding a single run of text, styled
// with style, immediately before the first body paragraph.
func (d *Document) PrependParagraph(text string, style RunStyle) error {
	spans, err := d.bodyParagraphs()
	if err != nil {
		return err
	}
	if len(spans) == 0 {
		return &domain.EmptyDocumentError{}
	}

	at := spans[0].start
	frag := paragraphXML(d.ns, text, style)

	out := make([]byte, 0, len(d.main)+len(frag))
	out = append(out, d.main[:at]...)
	out = append(out, frag...)
	out = append(out, d.main[at:]...)
	d.main = out
	return nil
}

// WriteTo serializes the package. Parts other than the main document are
// copied in their original compressed form.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	for _, f := range d.files {
		if f.Name != d.mainPart {
			if err := zw.Copy(f); err != nil {
				return cw.n, fmt.Errorf("copying part %s: %w", f.Name, err)
			}
			continue
		}

		fh := &zip.FileHeader{
			Name:           f.Name,
			Comment:        f.Comment,
			Method:         f.Method,
			Modified:       f.Modified,
			CreatorVersion: f.CreatorVersion,
			ExternalAttrs:  f.ExternalAttrs,
		}
		pw, err := zw.CreateHeader(fh)
		if err != nil {
			return cw.n, fmt.Errorf("creating part %s: %w", f.Name, err)
		}
		if _, err := pw.Write(d.main); err != nil {
			return cw.n, fmt.Errorf("writing part %s: %w", f.Name, err)
		}
	}

	if d.comment != "" {
		if err := zw.SetComment(d.comment); err != nil {
			return cw.n, fmt.Errorf("setting archive comment: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("closing archive: %w", err)
	}
	return cw.n, nil
}

// Bytes serializes the package into memory.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type relationships struct {
	Items []struct {
		Type       string `xml:"Type,attr"`
		Target     string `xml:"Target,attr"`
		TargetMode string `xml:"TargetMode,attr"`
	} `xml:"Relationship"`
}

// findMainPart resolves the officeDocument relationship of the package,
// falling back to the conventional location.
func findMainPart(zr *zip.Reader) (string, error) {
	names := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		names[f.Name] = true
	}

	if names[packageRelsPart] {
		raw, err := readPart(zr, packageRelsPart)
		if err != nil {
			return "", err
		}
		var rels relationships
		if err := xml.Unmarshal(raw, &rels); err != nil {
			return "", &domain.DocumentParseError{Reason: "malformed package relationships", Err: err}
		}
		for _, rel := range rels.Items {
			if !strings.HasSuffix(rel.Type, officeDocumentRel) || strings.EqualFold(rel.TargetMode, "External") {
				continue
			}
			target := path.Clean(strings.TrimPrefix(rel.Target, "/"))
			if names[target] {
				return target, nil
			}
		}
	}

	if names[defaultMainPart] {
		return defaultMainPart, nil
	}
	return "", &domain.DocumentParseError{Reason: "package has no main document part"}
}

func readPart(zr *zip.Reader, name string) ([]byte, error) {
	f, err := zr.Open(name)
	if err != nil {
		return nil, &domain.DocumentParseError{Reason: "opening part " + name, Err: err}
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxMainPartBytes+1))
	if err != nil {
		return nil, &domain.DocumentParseError{Reason: "reading part " + name, Err: err}
	}
	if len(raw) > maxMainPartBytes {
		return nil, &domain.DocumentParseError{Reason: fmt.Sprintf("part %s exceeds %d bytes", name, maxMainPartBytes)}
	}
	return raw, nil
}

// wordNamespace resolves the prefixes the root element binds to the
// wordprocessingml namespace. Redeclarations below the root are not followed.
func wordNamespace(main []byte) (wordNS, error) {
	dec := xml.NewDecoder(bytes.NewReader(main))
	for {
		tok, err := dec.RawToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return wordNS{}, &domain.DocumentParseError{Reason: "main part has no root element"}
			}
			return wordNS{}, &domain.DocumentParseError{Reason: "malformed main part", Err: err}
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		bound := make(map[string]string)
		var order []string
		for _, attr := range start.Attr {
			switch {
			case attr.Name.Space == "xmlns":
				bound[attr.Name.Local] = attr.Value
				order = append(order, attr.Name.Local)
			case attr.Name.Space == "" && attr.Name.Local == "xmlns":
				bound[""] = attr.Value
			}
		}

		uri := bound[start.Name.Space]
		if uri != wordprocessingNS && uri != wordprocessingStrictNS {
			return wordNS{}, &domain.DocumentParseError{Reason: "main part is not a wordprocessingml document"}
		}

		ns := wordNS{uri: uri, elem: start.Name.Space, attr: start.Name.Space}
		if ns.attr != "" {
			return ns, nil
		}
		for _, p := range order {
			if bound[p] == uri {
				ns.attr = p
				return ns, nil
			}
		}
		ns.attr, ns.declare = "w", true
		for i := 0; bound[ns.attr] != ""; i++ {
			ns.attr = fmt.Sprintf("w%d", i)
		}
		return ns, nil
	}
}

// bodyParagraphs scans the main part and returns the byte spans of the
// paragraphs that are direct children of the body element.
func (d *Document) bodyParagraphs() ([]span, error) {
	dec := xml.NewDecoder(bytes.NewReader(d.main))

	var spans []span
	var open []xml.Name
	var sawBody bool
	bodyDepth := -1
	paraStart := int64(-1)

	for {
		offset := dec.InputOffset()
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &domain.DocumentParseError{Reason: "malformed main part", Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth := len(open)
			if depth == 1 && d.is(t.Name, "body") {
				bodyDepth = depth + 1
				sawBody = true
			}
			if bodyDepth > 0 && depth == bodyDepth && d.is(t.Name, "p") {
				paraStart = offset
			}
			open = append(open, t.Name)
		case xml.EndElement:
			if len(open) == 0 {
				return nil, &domain.DocumentParseError{Reason: "malformed main part: unbalanced elements"}
			}
			top := open[len(open)-1]
			if top != t.Name {
				return nil, &domain.DocumentParseError{
					Reason: fmt.Sprintf("malformed main part: element <%s> closed by </%s>", qualified(top), qualified(t.Name)),
				}
			}
			open = open[:len(open)-1]
			depth := len(open)
			if paraStart >= 0 && depth == bodyDepth && d.is(t.Name, "p") {
				spans = append(spans, span{start: paraStart, end: dec.InputOffset()})
				paraStart = -1
			}
			if bodyDepth > 0 && depth == bodyDepth-1 {
				bodyDepth = -1
			}
		}
	}

	if len(open) != 0 {
		return nil, &domain.DocumentParseError{Reason: "malformed main part: unclosed elements"}
	}
	if !sawBody {
		return nil, &domain.DocumentParseError{Reason: "main part has no body"}
	}
	return spans, nil
}

func (d *Document) is(name xml.Name, local string) bool {
	return name.Space == d.ns.elem && name.Local == local
}

// qualified renders a raw token name as it appears in the source.
func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
