package dochandler

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PdfcpuExtractor is the default TableExtractor: it opens the PDF with
// pdfcpu and reads each requested page's content stream for text, then
// splits each line into columns on runs of two or more spaces — the layout
// convention DICOM's PDF parts use for simple fixed-column tables.
//
// Real table geometry detection (merged cells, multi-line rows, nested
// tables) is out of scope here; callers extracting from anything more
// elaborate than a plain column layout should supply their own
// TableExtractor — PDF table extraction is treated as an external
// collaborator, and this is the one concrete, best-effort default dcmspec
// ships.
type PdfcpuExtractor struct{}

func (PdfcpuExtractor) open(pdfBytes []byte) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	return api.ReadValidateAndOptimize(bytes.NewReader(pdfBytes), conf)
}

// PageText returns the cleaned (whitespace-collapsed) text of one page.
func (e PdfcpuExtractor) PageText(pdfBytes []byte, page int) (string, error) {
	ctx, err := e.open(pdfBytes)
	if err != nil {
		return "", fmt.Errorf("pdfcpu read: %w", err)
	}
	return extractPageText(ctx, page), nil
}

// ExtractTables reads each requested page's content stream and splits its
// lines into columns, treating the first non-empty line as the header.
func (e PdfcpuExtractor) ExtractTables(pdfBytes []byte, pages []int) ([]Table, error) {
	ctx, err := e.open(pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	var tables []Table
	for _, page := range pages {
		raw := extractRawPageText(ctx, page)
		lines := nonEmptyLines(raw)
		if len(lines) == 0 {
			continue
		}
		header := splitColumns(lines[0])
		var data [][]string
		for _, l := range lines[1:] {
			data = append(data, splitColumns(l))
		}
		tables = append(tables, Table{Page: page, Index: 0, Header: header, Data: data})
	}
	return tables, nil
}

var columnSplitRe = regexp.MustCompile(`\s{2,}`)

func splitColumns(line string) []string {
	fields := columnSplitRe.Split(strings.TrimSpace(line), -1)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, strings.TrimSpace(f))
	}
	return out
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// extractPageText returns pdfcpu content-stream text for one page, with
// whitespace runs collapsed to a single space.
func extractPageText(ctx *model.Context, pageNr int) string {
	return cleanPDFText(extractTextFromStream(pageContent(ctx, pageNr)))
}

// extractRawPageText keeps multi-space runs intact, which splitColumns
// relies on to recover a table's column boundaries.
func extractRawPageText(ctx *model.Context, pageNr int) string {
	return extractTextFromStream(pageContent(ctx, pageNr))
}

func pageContent(ctx *model.Context, pageNr int) []byte {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil
	}
	return data
}

var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// extractTextFromStream parses PDF content stream operators for text,
// inserting a space on Td/TD and a newline on T* and the ' shorthand so
// lines roughly track the page's visual rows.
func extractTextFromStream(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteByte('\n')
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// decodePDFString handles basic PDF escape sequences.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
			switch raw[i] {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '\\', '(', ')':
				sb.WriteByte(raw[i])
			default:
				if raw[i] >= '0' && raw[i] <= '7' {
					val := int(raw[i] - '0')
					for j := 0; j < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; j++ {
						i++
						val = val*8 + int(raw[i]-'0')
					}
					sb.WriteByte(byte(val))
				} else {
					sb.WriteByte(raw[i])
				}
			}
		} else {
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}

func cleanPDFText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
