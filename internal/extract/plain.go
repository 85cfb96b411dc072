package extract

import (
	"strings"
	"unicode/utf8"
)

// readPlain returns content as a string; invalid UTF-8 is replaced with U+FFFD.
func readPlain(content []byte) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}
	return strings.ToValidUTF8(string(content), "\ufffd"), nil
}
