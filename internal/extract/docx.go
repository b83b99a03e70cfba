package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// fromDOCX extracts paragraph text from a .docx file. A DOCX is a zip
// archive whose word/document.xml holds the body; text lives in <w:t>
// runs grouped into <w:p> paragraphs.
func fromDOCX(path string) ([]Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening docx %s: %w", filepath.Base(path), err)
	}
	defer zr.Close()

	var docXML io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docXML, err = f.Open()
			if err != nil {
				return nil, fmt.Errorf("opening document.xml in %s: %w", filepath.Base(path), err)
			}
			break
		}
	}
	if docXML == nil {
		return nil, fmt.Errorf("%s has no word/document.xml", filepath.Base(path))
	}
	defer docXML.Close()

	text, err := docxBodyText(docXML)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("no text extracted from %s", filepath.Base(path))
	}

	return []Document{{Text: text, Source: filepath.Base(path)}}, nil
}

func docxBodyText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var sb strings.Builder
	var inText bool

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return sb.String(), nil
}
