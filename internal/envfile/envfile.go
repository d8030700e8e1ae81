// Package envfile reads the line-oriented KEY=VALUE files that make up
// the local configuration tree. The format is deliberately minimal:
// blank lines and lines starting with '#' are ignored, and the first '='
// on a line splits key from value. There is no quoting or escaping
// grammar; values round-trip verbatim into the secret store.
package envfile

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Extension is the file suffix that marks a leaf config file in the tree.
const Extension = ".env"

// Parse reads an env file and returns its key/value pairs. Keys that are
// empty after trimming are dropped, matching duplicate-last-wins map
// semantics for repeated keys.
func Parse(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening env file: %w", err)
	}
	defer f.Close()

	values := make(map[string]string)

	scanner := bufio.NewScanner(f)
	// Secret values (certificates, JSON blobs) can exceed the default
	// 64KB token limit.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}

		key := strings.TrimSpace(line[:idx])
		if key == "" {
			continue
		}

		values[key] = strings.TrimSpace(line[idx+1:])
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}

	return values, nil
}

// IsEnvFile reports whether the file name is a leaf config file.
func IsEnvFile(name string) bool {
	return strings.HasSuffix(name, Extension)
}

// Stem returns the file name without the .env suffix.
func Stem(name string) string {
	return strings.TrimSuffix(name, Extension)
}
