package assets

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/cases"

	"github.com/jackzampolin/storyboard/internal/types"
)

// DefaultSimilarityThreshold is the score at which two assets of the same
// kind are treated as the same entity.
const DefaultSimilarityThreshold = 0.8

// Weights of the name and description scores in Similarity.
const (
	nameWeight        = 0.7
	descriptionWeight = 0.3
)

var wordPattern = regexp.MustCompile(`\p{Han}+|[\p{L}\p{N}_]+`)

// Deduplicator scores assets for likely duplicates.
type Deduplicator struct {
	threshold float64
}

// NewDeduplicator returns a Deduplicator. A threshold outside (0, 1] uses
// DefaultSimilarityThreshold.
func NewDeduplicator(threshold float64) *Deduplicator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	return &Deduplicator{threshold: threshold}
}

// NameSimilarity compares names ignoring case and whitespace using the
// matching-blocks ratio, in [0, 1].
func NameSimilarity(a, b string) float64 {
	a, b = normalizeName(a), normalizeName(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return difflib.NewMatcher(runeStrings(a), runeStrings(b)).Ratio()
}

// DescriptionSimilarity is the Jaccard index of the two descriptions' word sets.
func DescriptionSimilarity(a, b string) float64 {
	wa, wb := words(a), words(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	inter := 0
	for w := range wa {
		if wb[w] {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}

// Similarity weighs name similarity 0.7 and description similarity 0.3.
func Similarity(a, b types.Asset) float64 {
	return NameSimilarity(a.Name, b.Name)*nameWeight + DescriptionSimilarity(a.Description, b.Description)*descriptionWeight
}

// Match returns the first asset in existing that a duplicates. Identical
// names always match since they would produce the same tag.
func (d *Deduplicator) Match(a types.Asset, existing []types.Asset) (types.Asset, float64, bool) {
	for _, e := range existing {
		if normalizeName(a.Name) == normalizeName(e.Name) {
			return e, 1, true
		}
		if s := Similarity(a, e); s >= d.threshold {
			return e, s, true
		}
	}
	return types.Asset{}, 0, false
}

// Duplicate records an asset that was not added because it matched another.
type Duplicate struct {
	Kind  types.AssetKind `json:"kind" yaml:"kind"`
	Name  string          `json:"name" yaml:"name"`
	Match string          `json:"match" yaml:"match"`
	Score float64         `json:"score" yaml:"score"`
}

// Merge appends the assets of extracted to base, skipping any asset that
// duplicates one of the same kind already present. Base assets are never
// modified or removed.
func (d *Deduplicator) Merge(base, extracted types.Catalog) (types.Catalog, []Duplicate) {
	var dups []Duplicate
	merge := func(kind types.AssetKind, have, add []types.Asset) []types.Asset {
		out := make([]types.Asset, 0, len(have)+len(add))
		out = append(out, have...)
		for _, a := range add {
			if m, score, ok := d.Match(a, out); ok {
				dups = append(dups, Duplicate{Kind: kind, Name: a.Name, Match: m.Name, Score: score})
				continue
			}
			out = append(out, a)
		}
		return out
	}
	return types.Catalog{
		Characters: merge(types.AssetCharacter, base.Characters, extracted.Characters),
		Props:      merge(types.AssetProp, base.Props, extracted.Props),
		Scenes:     merge(types.AssetScene, base.Scenes, extracted.Scenes),
	}, dups
}

func normalizeName(s string) string {
	s = cases.Fold().String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func runeStrings(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func words(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range wordPattern.FindAllString(cases.Fold().String(s), -1) {
		set[w] = true
	}
	return set
}
