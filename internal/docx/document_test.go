package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/syllabus-merge/internal/docx/docxtest"
	"github.com/amaumene/syllabus-merge/internal/domain"
)

func mergeTitle(t *testing.T, pkg []byte, title string) []byte {
	t.Helper()
	doc, err := Open(pkg)
	require.NoError(t, err)
	require.NoError(t, doc.PrependParagraph(title, TitleStyle))
	out, err := doc.Bytes()
	require.NoError(t, err)
	return out
}

func paragraphsOf(t *testing.T, pkg []byte) []Paragraph {
	t.Helper()
	doc, err := Open(pkg)
	require.NoError(t, err)
	paras, err := doc.Paragraphs()
	require.NoError(t, err)
	return paras
}

func TestPrependParagraph_Scenario(t *testing.T) {
	pkg := docxtest.BuildParagraphs(t, "Course Overview")

	paras := paragraphsOf(t, mergeTitle(t, pkg, "CS101 Syllabus"))

	require.Len(t, paras, 2)
	require.Len(t, paras[0].Runs, 1)
	assert.Equal(t, "CS101 Syllabus", paras[0].Runs[0].Text)
	assert.Equal(t, RunStyle{Font: "Cambria", HalfPoints: 22, Bold: true}, paras[0].Runs[0].Style)
	assert.Equal(t, 11.0, paras[0].Runs[0].Style.Points())

	assert.Equal(t, "Course Overview", paras[1].Text())
	assert.Equal(t, RunStyle{}, paras[1].Runs[0].Style)
}

func TestPrependParagraph_PreservesExistingParagraphs(t *testing.T) {
	body := docxtest.StyledParagraph("Week 1") +
		docxtest.Paragraph("Introduction & goals") +
		docxtest.Table("Grading") +
		docxtest.Paragraph("Week 2") +
		`<w:p/>`

	pkg := docxtest.Build(t, body)
	before := paragraphsOf(t, pkg)
	require.Len(t, before, 4)

	after := paragraphsOf(t, mergeTitle(t, pkg, "Syllabus"))

	require.Len(t, after, len(before)+1)
	for i := range before {
		assert.Equal(t, string(before[i].Raw), string(after[i+1].Raw), "paragraph %d", i)
	}
}

func TestPrependParagraph_OnlyMainPartChanges(t *testing.T) {
	pkg := docxtest.BuildParagraphs(t, "Course Overview", "Assessment")
	out := mergeTitle(t, pkg, "CS101 Syllabus")

	in, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg)))
	require.NoError(t, err)
	got, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)

	require.Len(t, got.File, len(in.File))
	for i, f := range in.File {
		assert.Equal(t, f.Name, got.File[i].Name)
		if f.Name == "word/document.xml" {
			continue
		}
		assert.Equal(t, docxtest.ReadPart(t, pkg, f.Name), docxtest.ReadPart(t, out, f.Name), f.Name)
		assert.Equal(t, f.CRC32, got.File[i].CRC32, f.Name)
	}

	original := docxtest.ReadPart(t, pkg, "word/document.xml")
	merged := docxtest.ReadPart(t, out, "word/document.xml")
	frag := paragraphXML(wordNS{uri: wordprocessingNS, elem: "w", attr: "w"}, "CS101 Syllabus", TitleStyle)
	assert.Equal(t, string(original), string(bytes.Replace(merged, frag, nil, 1)))
}

func TestPrependParagraph_Deterministic(t *testing.T) {
	pkg := docxtest.BuildParagraphs(t, "Course Overview")

	first := mergeTitle(t, pkg, "CS101 Syllabus")
	second := mergeTitle(t, pkg, "CS101 Syllabus")

	assert.Equal(t, first, second)
}

func TestPrependParagraph_EmptyBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no content", body: ""},
		{name: "table only", body: docxtest.Table("Nested paragraphs do not count")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Open(docxtest.Build(t, tt.body))
			require.NoError(t, err)

			err = doc.PrependParagraph("Title", TitleStyle)

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrEmptyDocument)
			var target *domain.EmptyDocumentError
			assert.ErrorAs(t, err, &target)
		})
	}
}

func TestPrependParagraph_TitleText(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "markup characters", title: `Intro <to> "C" & 'Go'`, want: `Intro <to> "C" & 'Go'`},
		{name: "surrounding spaces", title: "  Padded  ", want: "  Padded  "},
		{name: "tab and newline", title: "Part A\tPart B\nPart C", want: "Part A\tPart B\nPart C"},
		{name: "crlf", title: "Line 1\r\nLine 2", want: "Line 1\nLine 2"},
		{name: "unicode", title: "Programación I – Sílabo", want: "Programación I – Sílabo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg := docxtest.BuildParagraphs(t, "Body")

			paras := paragraphsOf(t, mergeTitle(t, pkg, tt.title))

			require.Len(t, paras, 2)
			require.Len(t, paras[0].Runs, 1)
			assert.Equal(t, tt.want, paras[0].Runs[0].Text)
			assert.Equal(t, TitleStyle, paras[0].Runs[0].Style)
		})
	}
}

func TestOpen_InvalidPackage(t *testing.T) {
	tests := []struct {
		name string
		pkg  func(t *testing.T) []byte
	}{
		{
			name: "not a zip",
			pkg:  func(t *testing.T) []byte { return []byte("<html><body>Not found</body></html>") },
		},
		{
			name: "no main part",
			pkg: func(t *testing.T) []byte {
				return docxtest.BuildParts(t, map[string]string{"word/styles.xml": docxtest.StylesXML})
			},
		},
		{
			name: "malformed xml",
			pkg: func(t *testing.T) []byte {
				return docxtest.BuildParts(t, map[string]string{
					"word/document.xml": docxtest.DocumentXML(`<w:p><w:r><w:t>broken</w:r>`),
				})
			},
		},
		{
			name: "mismatched tags",
			pkg: func(t *testing.T) []byte {
				return docxtest.Build(t, `<w:p><w:r><w:t>A</w:r></w:t></w:p>`)
			},
		},
		{
			name: "mismatched tags outside the body",
			pkg: func(t *testing.T) []byte {
				return docxtest.BuildParts(t, map[string]string{
					"word/document.xml": `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
						docxtest.Paragraph("Body") + `</w:document></w:body>`,
				})
			},
		},
		{
			name: "unclosed elements",
			pkg: func(t *testing.T) []byte {
				return docxtest.BuildParts(t, map[string]string{
					"word/document.xml": `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p>`,
				})
			},
		},
		{
			name: "not wordprocessingml",
			pkg: func(t *testing.T) []byte {
				return docxtest.BuildParts(t, map[string]string{
					"word/document.xml": `<sheet xmlns="urn:example"><row/></sheet>`,
				})
			},
		},
		{
			name: "no body",
			pkg: func(t *testing.T) []byte {
				return docxtest.BuildParts(t, map[string]string{
					"word/document.xml": `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"></w:document>`,
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.pkg(t))

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrDocumentParse)
			var target *domain.DocumentParseError
			assert.ErrorAs(t, err, &target)
		})
	}
}

func TestOpen_MainPartFromRelationships(t *testing.T) {
	pkg := docxtest.BuildParts(t, map[string]string{
		"_rels/.rels": `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="/content/main.xml"/></Relationships>`,
		"content/main.xml":  docxtest.DocumentXML(docxtest.Paragraph("Real body")),
		"word/document.xml": docxtest.DocumentXML(docxtest.Paragraph("Decoy")),
	})

	doc, err := Open(pkg)
	require.NoError(t, err)
	assert.Equal(t, "content/main.xml", doc.MainPart())

	paras, err := doc.Paragraphs()
	require.NoError(t, err)
	require.Len(t, paras, 1)
	assert.Equal(t, "Real body", paras[0].Text())
}

func TestPrependParagraph_CustomPrefix(t *testing.T) {
	pkg := docxtest.BuildParts(t, map[string]string{
		"word/document.xml": `<x:document xmlns:x="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><x:body><x:p><x:r><x:t>First</x:t></x:r></x:p></x:body></x:document>`,
	})

	out := mergeTitle(t, pkg, "Title")

	main := string(docxtest.ReadPart(t, out, "word/document.xml"))
	assert.Contains(t, main, `<x:p><x:r><x:rPr><x:rFonts x:ascii="Cambria" x:hAnsi="Cambria"/><x:b/><x:sz x:val="22"/></x:rPr>`)

	paras := paragraphsOf(t, out)
	require.Len(t, paras, 2)
	assert.Equal(t, "Title", paras[0].Text())
	assert.Equal(t, "First", paras[1].Text())
}

func TestParagraphCount(t *testing.T) {
	doc, err := Open(docxtest.BuildParagraphs(t, "a", "b", "c"))
	require.NoError(t, err)

	n, err := doc.ParagraphCount()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

// strictDecode reads part with a namespace-aware decoder, failing the test
// on any well-formedness error, and returns the attributes of the first
// element with the given local name.
func strictDecode(t *testing.T, part []byte, local string) []xml.Attr {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader(part))
	var found []xml.Attr
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return found
		}
		require.NoError(t, err)
		if start, ok := tok.(xml.StartElement); ok && start.Name.Local == local && found == nil {
			found = start.Attr
		}
	}
}

func TestPrependParagraph_DefaultNamespace(t *testing.T) {
	tests := []struct {
		name     string
		document string
		wantRun  string
	}{
		{
			name:     "default namespace only",
			document: `<document xmlns="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><body><p><r><t>First</t></r></p></body></document>`,
			wantRun:  `<p xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><r><rPr><rFonts w:ascii="Cambria" w:hAnsi="Cambria"/><b/><sz w:val="22"/></rPr>`,
		},
		{
			name:     "default namespace with bound prefix",
			document: `<document xmlns="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:wx="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><body><p><r><t>First</t></r></p></body></document>`,
			wantRun:  `<p><r><rPr><rFonts wx:ascii="Cambria" wx:hAnsi="Cambria"/><b/><sz wx:val="22"/></rPr>`,
		},
		{
			name:     "w prefix taken by another namespace",
			document: `<document xmlns="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:w="urn:other"><body><p><r><t>First</t></r></p></body></document>`,
			wantRun:  `<p xmlns:w0="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><r><rPr><rFonts w0:ascii="Cambria" w0:hAnsi="Cambria"/><b/><sz w0:val="22"/></rPr>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg := docxtest.BuildParts(t, map[string]string{"word/document.xml": tt.document})

			out := mergeTitle(t, pkg, "Title")

			main := docxtest.ReadPart(t, out, "word/document.xml")
			assert.Contains(t, string(main), tt.wantRun)

			attrs := strictDecode(t, main, "rFonts")
			assert.Contains(t, attrs, xml.Attr{Name: xml.Name{Space: wordprocessingNS, Local: "ascii"}, Value: "Cambria"})
			assert.Contains(t, attrs, xml.Attr{Name: xml.Name{Space: wordprocessingNS, Local: "hAnsi"}, Value: "Cambria"})
			size := strictDecode(t, main, "sz")
			assert.Contains(t, size, xml.Attr{Name: xml.Name{Space: wordprocessingNS, Local: "val"}, Value: "22"})

			paras := paragraphsOf(t, out)
			require.Len(t, paras, 2)
			assert.Equal(t, TitleStyle, paras[0].Runs[0].Style)
			assert.Equal(t, "First", paras[1].Text())
		})
	}
}

func TestPrependParagraph_OutputIsWellFormed(t *testing.T) {
	pkg := docxtest.Build(t, docxtest.StyledParagraph("Week 1")+docxtest.Table("Grading"))

	out := mergeTitle(t, pkg, `Intro <to> "C" & 'Go'`)

	attrs := strictDecode(t, docxtest.ReadPart(t, out, "word/document.xml"), "rFonts")
	assert.Contains(t, attrs, xml.Attr{Name: xml.Name{Space: wordprocessingNS, Local: "ascii"}, Value: "Cambria"})
}

func TestParagraphs_IgnoresUnqualifiedAttributes(t *testing.T) {
	doc, err := Open(docxtest.Build(t, `<w:p><w:r><w:rPr><w:rFonts ascii="Cambria"/><w:sz val="22"/></w:rPr><w:t>Body</w:t></w:r></w:p>`))
	require.NoError(t, err)

	paras, err := doc.Paragraphs()
	require.NoError(t, err)
	require.Len(t, paras, 1)
	assert.Equal(t, RunStyle{}, paras[0].Runs[0].Style)
}
