package extract

import (
	"fmt"

	"github.com/lu4p/cat"
)

// readWithCat handles OpenDocument text and RTF, detected from content.
func readWithCat(content []byte) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return text, nil
}
