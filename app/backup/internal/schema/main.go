// Command schema writes the JSON schema of course archives, run by go generate in app/backup.
// Usage: schema [output-file], archive-schema.json by default.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/go-pkgz/lgr"

	"github.com/jmbouzan/ardora/app/backup"
)

func main() {
	out := "archive-schema.json"
	if len(os.Args) > 1 {
		out = os.Args[1]
	}
	title, err := writeSchema(out)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	log.Printf("[INFO] %q schema written to %s", title, out)
}

// writeSchema stores the indented archive schema with a trailing newline and returns its title
func writeSchema(path string) (string, error) {
	s := backup.Schema()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("can't encode %q schema: %w", s.Title, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil { //nolint:gosec // generated file is public
		return "", fmt.Errorf("can't write %s: %w", path, err)
	}
	return s.Title, nil
}
