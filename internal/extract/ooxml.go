package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

var (
	wordRun  = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	slideRun = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)
	override = regexp.MustCompile(`<Override\s[^>]*>`)
	attr     = regexp.MustCompile(`(\w+)="([^"]*)"`)
	slideNum = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
)

func openZip(content []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("not a zip archive: %w", err)
	}
	return zr, nil
}

func readEntry(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.Name, err)
	}
	return string(data), nil
}

func findEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// joinRuns concatenates the captured text of every match of re, space separated.
func joinRuns(xml string, re *regexp.Regexp) string {
	var parts []string
	for _, m := range re.FindAllStringSubmatch(xml, -1) {
		if s := strings.TrimSpace(m[1]); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// docxBodyPath reads [Content_Types].xml for the main document part.
// Attribute order inside <Override> varies between producers.
func docxBodyPath(zr *zip.Reader) string {
	const fallback = "word/document.xml"
	f := findEntry(zr, "[Content_Types].xml")
	if f == nil {
		return fallback
	}
	types, err := readEntry(f)
	if err != nil {
		return fallback
	}
	for _, el := range override.FindAllString(types, -1) {
		attrs := map[string]string{}
		for _, m := range attr.FindAllStringSubmatch(el, -1) {
			attrs[m[1]] = m[2]
		}
		if attrs["ContentType"] == docxMainContentType && attrs["PartName"] != "" {
			return strings.TrimPrefix(attrs["PartName"], "/")
		}
	}
	return fallback
}

func readDOCX(content []byte) (string, error) {
	zr, err := openZip(content)
	if err != nil {
		return "", err
	}
	body := docxBodyPath(zr)
	f := findEntry(zr, body)
	if f == nil {
		return "", fmt.Errorf("%s not found", body)
	}
	xml, err := readEntry(f)
	if err != nil {
		return "", err
	}
	return joinRuns(xml, wordRun), nil
}

// readPPTX extracts slide text in slide-number order.
func readPPTX(content []byte) (string, error) {
	zr, err := openZip(content)
	if err != nil {
		return "", err
	}
	type slide struct {
		n int
		f *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		m := slideNum.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{n: n, f: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	var parts []string
	for _, s := range slides {
		xml, err := readEntry(s.f)
		if err != nil {
			return "", err
		}
		if text := joinRuns(xml, slideRun); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}
