package metadata

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Release holds the descriptor fields used by the pipeline.
type Release struct {
	// Version is the release version string, reported verbatim.
	Version string
}

// ErrBadDescriptor indicates the release descriptor is missing or malformed.
var ErrBadDescriptor = errors.New("bad release descriptor")

// versionKey is the assignment key carrying the release version.
const versionKey = "version"

// Load parses the release descriptor at path.
// Blank lines and lines starting with '#' are ignored; every other line must
// be a key = value assignment. Exactly one version assignment is required.
func Load(path string) (*Release, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadDescriptor, err)
	}

	defer func() {
		_ = file.Close()
	}()

	var (
		release Release
		seen    bool
		lineNo  int
	)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%w: line %d is not an assignment", ErrBadDescriptor, lineNo)
		}

		if strings.TrimSpace(key) != versionKey {
			continue
		}

		if seen {
			return nil, fmt.Errorf("%w: duplicate version assignment on line %d", ErrBadDescriptor, lineNo)
		}

		seen = true
		release.Version = unquote(strings.TrimSpace(value))
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadDescriptor, err)
	}

	if !seen || release.Version == "" {
		return nil, fmt.Errorf("%w: version is not set", ErrBadDescriptor)
	}

	return &release, nil
}

// unquote strips one pair of matching single or double quotes, if present.
func unquote(s string) string {
	const minQuotedLength = 2

	if len(s) < minQuotedLength {
		return s
	}

	first, last := s[0], s[len(s)-1]
	if first == last && (first == '"' || first == '\'') {
		return s[1 : len(s)-1]
	}

	return s
}
