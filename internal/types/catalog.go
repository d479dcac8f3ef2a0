package types

import "strings"

// AssetKind identifies the catalog section an asset belongs to.
type AssetKind string

const (
	AssetCharacter AssetKind = "CHARACTER"
	AssetProp      AssetKind = "PROP"
	AssetScene     AssetKind = "SCENE"
)

// Asset is one named entity that generated shots may reference.
type Asset struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Gender      string `json:"gender,omitempty" yaml:"gender,omitempty"`
	Age         string `json:"age,omitempty" yaml:"age,omitempty"`
	Voice       string `json:"voice,omitempty" yaml:"voice,omitempty"`
	Role        string `json:"role,omitempty" yaml:"role,omitempty"`
	Importance  int    `json:"importance,omitempty" yaml:"importance,omitempty"`
}

// Tag returns the @-prefixed reference used in a shot's assets field.
func (a Asset) Tag() string {
	return "@" + strings.Join(strings.Fields(a.Name), "")
}

// Catalog is the allow-list of entities generation may reference.
type Catalog struct {
	Characters []Asset `json:"characters" yaml:"characters"`
	Props      []Asset `json:"props" yaml:"props"`
	Scenes     []Asset `json:"scenes" yaml:"scenes"`
}

// CatalogEntry pairs an asset with its kind.
type CatalogEntry struct {
	Kind  AssetKind
	Asset Asset
}

// Entries returns all assets in catalog order: characters, props, scenes.
func (c Catalog) Entries() []CatalogEntry {
	entries := make([]CatalogEntry, 0, c.Len())
	for _, a := range c.Characters {
		entries = append(entries, CatalogEntry{Kind: AssetCharacter, Asset: a})
	}
	for _, a := range c.Props {
		entries = append(entries, CatalogEntry{Kind: AssetProp, Asset: a})
	}
	for _, a := range c.Scenes {
		entries = append(entries, CatalogEntry{Kind: AssetScene, Asset: a})
	}
	return entries
}

// Tags returns every asset tag in catalog order.
func (c Catalog) Tags() []string {
	entries := c.Entries()
	tags := make([]string, len(entries))
	for i, e := range entries {
		tags[i] = e.Asset.Tag()
	}
	return tags
}

// Len returns the total number of assets.
func (c Catalog) Len() int {
	return len(c.Characters) + len(c.Props) + len(c.Scenes)
}
