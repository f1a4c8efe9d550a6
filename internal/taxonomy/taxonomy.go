// Package taxonomy defines the content categories and their display metadata.
//
// The metadata table is loaded once at startup and handed to whoever renders
// categories. Lookups for keys the table does not know fail with
// apperr.ErrUnknownCategory, while Label always renders something.
package taxonomy

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/VisageDvachevsky/wink-ai-model/internal/apperr"
)

// DefaultLanguage is used when a label is missing in the requested language.
const DefaultLanguage = "en"

//go:embed categories.yaml
var defaultTable []byte

// Info is the display metadata of one category.
type Info struct {
	Key    Category          `yaml:"key" json:"key"`
	Icon   string            `yaml:"icon" json:"icon"`
	Color  string            `yaml:"color" json:"color"`
	Group  string            `yaml:"group" json:"group"`
	Labels map[string]string `yaml:"labels" json:"labels"`
}

type document struct {
	Categories []Info `yaml:"categories"`
}

// Taxonomy is an immutable category metadata table.
type Taxonomy struct {
	byKey map[Category]Info
	order []Category
}

// Default returns the table compiled into the binary.
func Default() (*Taxonomy, error) {
	return Parse(defaultTable)
}

// Load reads the table from path, or returns Default when path is empty.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML category table.
func Parse(data []byte) (*Taxonomy, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}

	t := &Taxonomy{byKey: make(map[Category]Info, len(doc.Categories))}
	for _, info := range doc.Categories {
		if !info.Key.Valid() {
			return nil, fmt.Errorf("parse taxonomy: %w", apperr.UnknownCategory(string(info.Key)))
		}
		if _, dup := t.byKey[info.Key]; dup {
			return nil, fmt.Errorf("parse taxonomy: duplicate category %q", info.Key)
		}
		if info.Labels == nil {
			info.Labels = map[string]string{}
		}
		t.byKey[info.Key] = info
		t.order = append(t.order, info.Key)
	}
	return t, nil
}

// Lookup returns the metadata for key.
func (t *Taxonomy) Lookup(key string) (Info, error) {
	info, ok := t.byKey[Category(key)]
	if !ok {
		return Info{}, apperr.UnknownCategory(key)
	}
	return info, nil
}

// Label renders key in lang, falling back to DefaultLanguage and then to the raw key.
func (t *Taxonomy) Label(key, lang string) string {
	info, err := t.Lookup(key)
	if err != nil {
		return key
	}
	if l := info.Labels[lang]; l != "" {
		return l
	}
	if l := info.Labels[DefaultLanguage]; l != "" {
		return l
	}
	return key
}

// Icon returns the icon for key, or an empty string for unknown keys.
func (t *Taxonomy) Icon(key string) string {
	info, err := t.Lookup(key)
	if err != nil {
		return ""
	}
	return info.Icon
}

// Entries returns the table in file order.
func (t *Taxonomy) Entries() []Info {
	out := make([]Info, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.byKey[k])
	}
	return out
}
