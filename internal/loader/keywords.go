package loader

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

var ErrNoKeywords = errors.New("keyword file is empty")

const placeholderKeywords = `# One keyword or phrase per line. Matching is case-insensitive.
Privacy
Security
Terms of Service
`

// LoadKeywords reads the keyword file, one keyword or phrase per line.
// When the file does not exist a placeholder is written and (true, nil)
// is returned for created so the caller can ask the operator to edit it.
// An existing but empty file is an error.
func LoadKeywords(filename string, log *slog.Logger) (keywords []string, created bool, err error) {
	if _, statErr := os.Stat(filename); os.IsNotExist(statErr) {
		if err := os.WriteFile(filename, []byte(placeholderKeywords), 0644); err != nil {
			return nil, false, fmt.Errorf("failed to create keyword file: %w", err)
		}
		log.Info("keyword file not found. A placeholder has been created.",
			slog.String("file", filename))
		return nil, true, nil
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open keyword file: %w", err)
	}
	defer f.Close()

	keywords, err = readLines(f)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read keyword file: %w", err)
	}
	if len(keywords) == 0 {
		return nil, false, fmt.Errorf("%w: %s", ErrNoKeywords, filename)
	}

	return keywords, false, nil
}
