package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
)

// documentXML mirrors the parts of word/document.xml we read. Tabs and
// breaks inside a run become whitespace so words don't fuse.
type documentXML struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Elements []docxRunElement `xml:",any"`
}

type docxRunElement struct {
	XMLName xml.Name
	Content string `xml:",chardata"`
}

func extractDOCX(data []byte) (string, error) {
	const op = "extract.docx"
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.InvalidInput(op, "not a valid docx archive")
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", errors.InvalidInput(op, "unreadable docx archive")
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", errors.InvalidInput(op, "unreadable docx document part")
		}
		return parseDocumentXML(content)
	}
	return "", errors.InvalidInput(op, "docx archive has no document part")
}

func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", errors.InvalidInput("extract.docx", "malformed docx document xml")
	}

	var b strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, run := range para.Runs {
			for _, el := range run.Elements {
				switch el.XMLName.Local {
				case "t":
					b.WriteString(el.Content)
				case "tab":
					b.WriteString("\t")
				case "br", "cr":
					b.WriteString("\n")
				}
			}
		}
	}
	return b.String(), nil
}
