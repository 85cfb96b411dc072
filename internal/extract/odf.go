package extract

import (
	"fmt"
	"regexp"
)

const odfContentPath = "content.xml"

// odfText matches paragraph, heading and span elements that hold only text.
// Elements are visited in document order so slide and sheet text stays readable.
var odfText = regexp.MustCompile(`<text:(?:p|h|span)\b[^>]*>([^<]*)</text:(?:p|h|span)>`)

// readODF extracts text from OpenDocument presentations and spreadsheets.
func readODF(content []byte) (string, error) {
	zr, err := openZip(content)
	if err != nil {
		return "", err
	}
	f := findEntry(zr, odfContentPath)
	if f == nil {
		return "", fmt.Errorf("%s not found", odfContentPath)
	}
	xml, err := readEntry(f)
	if err != nil {
		return "", err
	}
	return joinRuns(xml, odfText), nil
}
