// Package extract turns uploaded document files into raw text for the
// engine to ingest. Extraction runs before ingestion and is the only
// place that knows about file formats.
package extract

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"documind/internal/models"
)

// Text extracts plain text from the file at filePath, dispatching on the
// file extension.
func Text(filePath string) (string, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".pdf":
		return pdfText(filePath)
	case ".docx":
		return docxText(filePath)
	case ".pptx":
		return pptxText(filePath)
	case ".xlsx":
		return xlsxText(filePath)
	case ".ods":
		return odsText(filePath)
	case ".md", ".markdown":
		return markdownText(filePath)
	case ".txt":
		return plainText(filePath)
	default:
		return "", fmt.Errorf("%w: %s", models.ErrUnsupportedFormat, filepath.Ext(filePath))
	}
}

func pdfText(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		pageText, err := reader.Page(i).GetPlainText(nil)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(pageText)
	}
	return text.String(), nil
}

func docxText(filePath string) (string, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	// GetContent returns the raw document XML; pull the run text out of
	// the <w:t> elements.
	content := r.Editable().GetContent()
	return textFromXML(content, "<w:t", "</w:t>"), nil
}

func pptxText(filePath string) (string, error) {
	reader, err := zip.OpenReader(filePath)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	// Slide XML lives at ppt/slides/slideN.xml; zip entry order is not
	// slide order, so sort by N. Run text sits in <a:t> elements.
	type slide struct {
		num  int
		text string
	}
	var slides []slide
	for _, f := range reader.File {
		name := strings.TrimSuffix(strings.TrimPrefix(f.Name, "ppt/slides/slide"), ".xml")
		if name == f.Name || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		num, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		slides = append(slides, slide{num: num, text: textFromXML(string(data), "<a:t", "</a:t>")})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var text strings.Builder
	for _, s := range slides {
		if strings.TrimSpace(s.text) == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(s.text)
	}
	return text.String(), nil
}

func xlsxText(filePath string) (string, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, sheet := range f.Sheets {
		fmt.Fprintf(&text, "Sheet: %s\n", sheet.Name)
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
	}
	return text.String(), nil
}

func odsText(filePath string) (string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var text strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		fmt.Fprintf(&text, "Sheet: %s\n", sheetName)
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
	}
	return text.String(), nil
}

func markdownText(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}

	md := goldmark.New()
	reader := gmtext.NewReader(data)
	doc := md.Parser().Parse(reader)

	var text strings.Builder
	err = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Text:
			text.Write(n.Segment.Value(data))
			if n.SoftLineBreak() || n.HardLineBreak() {
				text.WriteString("\n")
			}
		case *ast.FencedCodeBlock:
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				text.Write(line.Value(data))
			}
		case *ast.Heading, *ast.Paragraph, *ast.ListItem:
			if text.Len() > 0 {
				text.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}
	return text.String(), nil
}

func plainText(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// textFromXML pulls the character data of every openTag...closeTag pair
// out of raw XML, space-separated.
func textFromXML(xmlContent, openTag, closeTag string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, openTag)
	for i, part := range parts {
		if i == 0 {
			continue
		}
		// Reject longer tag names sharing the prefix (e.g. <w:tab> when
		// splitting on <w:t), then skip past the rest of the opening tag.
		if part == "" || (part[0] != '>' && part[0] != ' ') {
			continue
		}
		gt := strings.Index(part, ">")
		if gt < 0 {
			continue
		}
		part = part[gt+1:]
		end := strings.Index(part, closeTag)
		if end < 0 {
			continue
		}
		if chunk := part[:end]; chunk != "" {
			if text.Len() > 0 {
				text.WriteString(" ")
			}
			text.WriteString(chunk)
		}
	}
	return text.String()
}
