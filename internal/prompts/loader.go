// Package prompts provides the search prompt templates sent to AI search providers.
// Templates are stored as JSON files and embedded at compile time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// File is the embedded prompt file used by the discovery service.
const File = "search.json"

// Keys within File.
const (
	KeyFindListicles     = "find-listicles"
	KeyEstimateListicles = "estimate-listicles"
)

//go:embed *.json
var promptFiles embed.FS

var (
	parsed   = make(map[string]map[string]string)
	parsedMu sync.RWMutex
)

// Get retrieves a prompt template by filename and key.
func Get(filename, key string) (string, error) {
	templates, err := load(filename)
	if err != nil {
		return "", err
	}

	tmpl, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return tmpl, nil
}

// MustGet is Get for templates required at start-up; it panics when one is missing.
func MustGet(filename, key string) string {
	tmpl, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return tmpl
}

// Format replaces {{.Key}} placeholders with values from data.
func Format(template string, data map[string]string) string {
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Search renders the per-variant listicle search prompt.
func Search(variant string) string {
	return Format(MustGet(File, KeyFindListicles), map[string]string{"Query": variant})
}

// Estimate renders the citations-only prompt used for count estimates.
func Estimate(query string) string {
	return Format(MustGet(File, KeyEstimateListicles), map[string]string{"Query": query})
}

func load(filename string) (map[string]string, error) {
	parsedMu.RLock()
	templates, ok := parsed[filename]
	parsedMu.RUnlock()
	if ok {
		return templates, nil
	}

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}
	if err := json.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	parsedMu.Lock()
	parsed[filename] = templates
	parsedMu.Unlock()
	return templates, nil
}

// ClearCache drops parsed files so the next Get re-reads them.
func ClearCache() {
	parsedMu.Lock()
	parsed = make(map[string]map[string]string)
	parsedMu.Unlock()
}

// List returns the sorted prompt keys in a file.
func List(filename string) ([]string, error) {
	templates, err := load(filename)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(templates))
	for key := range templates {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
