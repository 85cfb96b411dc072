package e2e

import (
	"archive/zip"
	"bytes"

	"github.com/xuri/excelize/v2"
)

// SupportedFileExtensions are the document types the E2E file tests write.
// PDF is covered by the extractor tests; .odt and .rtf go through cat and
// need real documents.
var SupportedFileExtensions = []string{".txt", ".md", ".docx", ".xlsx", ".pptx", ".odp", ".ods"}

// WriteMinimalFile returns the bytes of a minimal file of type ext holding text.
// Plain types get the raw text.
func WriteMinimalFile(ext, text string) ([]byte, error) {
	switch ext {
	case ".docx":
		return singleEntryZip("word/document.xml",
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>`+text+`</w:t></w:r></w:p></w:body></w:document>`)
	case ".pptx":
		return singleEntryZip("ppt/slides/slide1.xml",
			`<p:sld xmlns:p="a" xmlns:a="b"><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>`+text+`</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`)
	case ".odp":
		return singleEntryZip("content.xml",
			`<office:document><office:body><office:presentation><draw:page><draw:frame><draw:text-box><text:p>`+text+`</text:p></draw:text-box></draw:frame></draw:page></office:presentation></office:body></office:document>`)
	case ".ods":
		return singleEntryZip("content.xml",
			`<office:document><office:body><office:spreadsheet><table:table><table:table-row><table:table-cell><text:p>`+text+`</text:p></table:table-cell></table:table-row></table:table></office:spreadsheet></office:body></office:document>`)
	case ".xlsx":
		return minimalXlsx(text)
	default:
		return []byte(text), nil
	}
}

func singleEntryZip(name, body string) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, err := w.Create(name)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write([]byte(body)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func minimalXlsx(text string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetCellValue("Sheet1", "A1", text); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
