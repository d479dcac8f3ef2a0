// Package ingest loads the inputs of a storyboard run from disk: screenplay
// text (optionally split across numbered part files), an entity catalog and
// optional narrative context.
package ingest

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/storyboard/internal/types"
)

// Request contains the paths of one run's inputs.
type Request struct {
	ScriptPaths   []string     // Screenplay parts (sorted by numeric suffix, then joined)
	Title         string       // Optional; derived from the first filename when empty
	CatalogPath   string       // Optional YAML or JSON catalog
	NarrativePath string       // Optional YAML or JSON narrative context
	Logger        *slog.Logger // Optional logger for progress updates
}

// Result holds the loaded inputs.
type Result struct {
	Document types.Document
	Catalog  types.Catalog
	Parts    []string // Script paths in the order they were joined
}

// Load reads every input named by req.
func Load(req Request) (*Result, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}

	if len(req.ScriptPaths) == 0 {
		return nil, fmt.Errorf("no script paths provided")
	}
	for _, p := range req.ScriptPaths {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("script not found: %s", p)
		}
	}

	parts := sortByNumber(req.ScriptPaths)
	texts := make([]string, 0, len(parts))
	for i, p := range parts {
		text, err := LoadScript(p)
		if err != nil {
			return nil, err
		}
		log.Debug("loaded script part", "file", filepath.Base(p), "part", i+1, "of", len(parts), "chars", utf8.RuneCountInString(text))
		texts = append(texts, text)
	}

	title := req.Title
	if title == "" {
		title = deriveTitle(parts[0])
	}

	res := &Result{
		Document: types.Document{Title: title, Text: strings.Join(texts, "\n\n")},
		Parts:    parts,
	}

	if req.CatalogPath != "" {
		cat, err := LoadCatalog(req.CatalogPath)
		if err != nil {
			return nil, err
		}
		res.Catalog = cat
	}
	if req.NarrativePath != "" {
		n, err := LoadNarrative(req.NarrativePath)
		if err != nil {
			return nil, err
		}
		res.Document.Narrative = n
	}

	log.Info("loaded inputs", "title", title, "parts", len(parts), "chars", res.Document.Len(), "catalog_assets", res.Catalog.Len())
	return res, nil
}

// LoadScript reads a screenplay file, dropping a UTF-8 byte order mark and
// normalizing line endings to \n.
func LoadScript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("script %s is not valid UTF-8", path)
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimSpace(text), nil
}

// LoadCatalog reads an entity catalog. JSON files parse as YAML too.
func LoadCatalog(path string) (types.Catalog, error) {
	var cat types.Catalog
	if err := decodeFile(path, &cat); err != nil {
		return types.Catalog{}, fmt.Errorf("failed to load catalog: %w", err)
	}
	for _, e := range cat.Entries() {
		if strings.TrimSpace(e.Asset.Name) == "" {
			return types.Catalog{}, fmt.Errorf("catalog %s: %s entry without a name", path, strings.ToLower(string(e.Kind)))
		}
	}
	return cat, nil
}

// LoadNarrative reads optional narrative context.
func LoadNarrative(path string) (*types.NarrativeContext, error) {
	var n types.NarrativeContext
	if err := decodeFile(path, &n); err != nil {
		return nil, fmt.Errorf("failed to load narrative: %w", err)
	}
	return &n, nil
}

// SaveCatalog writes cat as YAML.
func SaveCatalog(path string, cat types.Catalog) error {
	data, err := yaml.Marshal(cat)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

var partNumber = regexp.MustCompile(`-(\d+)\.[^.]+$`)

// sortByNumber sorts paths by their numeric suffix.
// e.g., ["ep-2.txt", "ep-1.txt", "ep-10.txt"] -> ["ep-1.txt", "ep-2.txt", "ep-10.txt"]
func sortByNumber(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)

	sort.SliceStable(sorted, func(i, j int) bool {
		mi := partNumber.FindStringSubmatch(sorted[i])
		mj := partNumber.FindStringSubmatch(sorted[j])

		// If both have numbers, sort numerically
		if len(mi) > 1 && len(mj) > 1 {
			ni, _ := strconv.Atoi(mi[1])
			nj, _ := strconv.Atoi(mj[1])
			return ni < nj
		}

		// Files without numbers come first
		if len(mi) > 1 {
			return false
		}
		if len(mj) > 1 {
			return true
		}

		return sorted[i] < sorted[j]
	})

	return sorted
}

var trailingNumber = regexp.MustCompile(`-\d+$`)

// deriveTitle extracts a title from a script filename.
// e.g., "the-storm-1.txt" -> "the-storm"
func deriveTitle(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return trailingNumber.ReplaceAllString(name, "")
}
