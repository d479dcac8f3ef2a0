package assets

import (
	"math"
	"testing"

	"github.com/jackzampolin/storyboard/internal/types"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"Mara", " mara ", 1},
		{"Lamp Room", "lamproom", 1},
		{"Lamp Room", "Lamp-Room", 16.0 / 17.0},
		{"Brass Lamp", "Brass Lamps", 18.0 / 19.0},
		{"Lamp Room", "Engine Room", 8.0 / 18.0},
		{"咖啡馆", "咖啡厅", 4.0 / 6.0},
		{"", "Mara", 0},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			if got := NameSimilarity(tt.a, tt.b); !approx(got, tt.want) {
				t.Errorf("NameSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDescriptionSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"overlap", "the old brass lamp", "Brass lamp, old", 0.75},
		{"identical", "glass walls", "Glass walls", 1},
		{"disjoint", "glass walls", "engine oil", 0},
		{"empty", "", "glass walls", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DescriptionSimilarity(tt.a, tt.b); !approx(got, tt.want) {
				t.Errorf("DescriptionSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSimilarity(t *testing.T) {
	a := types.Asset{Name: "Brass Lamp", Description: "the lighthouse lamp"}
	b := types.Asset{Name: "Brass Lamps", Description: "the lighthouse lamp"}
	want := 18.0/19.0*0.7 + 0.3
	if got := Similarity(a, b); !approx(got, want) {
		t.Errorf("Similarity = %v, want %v", got, want)
	}
}

func TestDeduplicator_Merge(t *testing.T) {
	base := types.Catalog{
		Characters: []types.Asset{{Name: "Mara", Description: "keeper of the lighthouse"}},
		Props:      []types.Asset{{Name: "Brass Lamp", Description: "the lighthouse lamp"}},
	}
	extracted := types.Catalog{
		Characters: []types.Asset{
			{Name: "MARA", Description: "an old woman"},
			{Name: "Old Tom", Description: "fisherman"},
		},
		Props: []types.Asset{
			{Name: "Brass Lamps", Description: "the lighthouse lamp"},
			{Name: "Engine Room Key", Description: "rusted"},
		},
		Scenes: []types.Asset{
			{Name: "Brass Lamp", Description: "close on the lamp"},
			{Name: "Lamp Room", Description: "glass walls"},
			{Name: "Engine Room", Description: "oil and noise"},
		},
	}

	merged, dups := NewDeduplicator(0).Merge(base, extracted)

	names := func(as []types.Asset) []string {
		out := make([]string, len(as))
		for i, a := range as {
			out[i] = a.Name
		}
		return out
	}
	check := func(kind string, got, want []string) {
		t.Helper()
		if len(got) != len(want) {
			t.Fatalf("%s = %v, want %v", kind, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s = %v, want %v", kind, got, want)
			}
		}
	}
	check("characters", names(merged.Characters), []string{"Mara", "Old Tom"})
	check("props", names(merged.Props), []string{"Brass Lamp", "Engine Room Key"})
	// Same name in another kind is not a duplicate.
	check("scenes", names(merged.Scenes), []string{"Brass Lamp", "Lamp Room", "Engine Room"})

	if len(dups) != 2 {
		t.Fatalf("dups = %+v", dups)
	}
	if dups[0].Kind != types.AssetCharacter || dups[0].Match != "Mara" || dups[0].Score != 1 {
		t.Errorf("dups[0] = %+v", dups[0])
	}
	if dups[1].Kind != types.AssetProp || dups[1].Name != "Brass Lamps" || dups[1].Score < DefaultSimilarityThreshold {
		t.Errorf("dups[1] = %+v", dups[1])
	}
	if merged.Characters[0].Description != "keeper of the lighthouse" {
		t.Error("base assets must not change")
	}
}

func TestDeduplicator_Threshold(t *testing.T) {
	a := types.Asset{Name: "Lamp Room", Description: "glass walls"}
	b := types.Asset{Name: "Lamp-Room", Description: "tall glass walls at night"}
	// 16/17*0.7 + 2/5*0.3 = 0.779
	if _, _, ok := NewDeduplicator(0).Match(b, []types.Asset{a}); ok {
		t.Error("default threshold should keep both")
	}
	if _, _, ok := NewDeduplicator(0.75).Match(b, []types.Asset{a}); !ok {
		t.Error("lower threshold should match")
	}
}

func TestParseCatalog_DropsNearDuplicates(t *testing.T) {
	raw := `{
  "characters": [{"name": "Mara", "description": "keeper", "importance": 9}],
  "props": [
    {"name": "Brass Lamp", "description": "the lighthouse lamp", "importance": 8},
    {"name": "Brass Lamps", "description": "the lighthouse lamp", "importance": 6}
  ],
  "scenes": []
}`
	cat, dups, err := parseCatalog(raw, NewDeduplicator(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(cat.Props) != 1 || len(dups) != 1 {
		t.Errorf("props = %+v, dups = %+v", cat.Props, dups)
	}
	if cat.Scenes == nil {
		t.Error("empty kinds should stay non-nil")
	}
}
