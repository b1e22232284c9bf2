package cobol

import "sort"

// Section names a data-declaration section. Empty when the declaration
// precedes any section header.
type Section string

const (
	SectionWorking Section = "WORKING-STORAGE SECTION"
	SectionLinkage Section = "LINKAGE SECTION"
	SectionFile    Section = "FILE SECTION"
	SectionLocal   Section = "LOCAL-STORAGE SECTION"
)

// DataItem is one parsed data declaration. Parent links are expressed by
// full path so the dictionary stays a flat arena.
type DataItem struct {
	Program         string  `json:"program"`
	Section         Section `json:"section"`
	Origin          string  `json:"source"`
	Level           int     `json:"level"`
	LevelText       string  `json:"level_text"`
	Name            string  `json:"name"`
	ParentName      string  `json:"parent_name,omitempty"`
	ParentPath      string  `json:"parent_path,omitempty"`
	FullPath        string  `json:"full_path"`
	Pic             string  `json:"pic,omitempty"`
	Usage           string  `json:"usage,omitempty"`
	Occurs          string  `json:"occurs,omitempty"`
	OccursDependsOn string  `json:"occurs_depends_on,omitempty"`
	Redefines       string  `json:"redefines,omitempty"`
	Value           string  `json:"value,omitempty"`
	Line            int     `json:"line"`

	Used       bool `json:"used"`
	UsedDirect bool `json:"used_direct"`
}

// IsCondition reports whether the item is a level-88 condition name.
func (d DataItem) IsCondition() bool { return d.Level == 88 }

// Key identifies an item inside one program.
func (d DataItem) Key() string { return ItemKey(d.Section, d.FullPath) }

// ItemKey builds the arena key for a section and full path.
func ItemKey(section Section, fullPath string) string {
	return string(section) + "|" + fullPath
}

// Dictionary is the arena of data items for one program, in declaration order.
type Dictionary struct {
	Items []DataItem `json:"items"`

	index map[string]int
}

// NewDictionary indexes items by section and full path.
func NewDictionary(items []DataItem) *Dictionary {
	d := &Dictionary{Items: items}
	d.Reindex()
	return d
}

// Reindex rebuilds the lookup index after Items was replaced.
func (d *Dictionary) Reindex() {
	d.index = make(map[string]int, len(d.Items))
	for i, it := range d.Items {
		d.index[it.Key()] = i
	}
}

// Lookup returns the position of the item with the given section and path.
func (d *Dictionary) Lookup(section Section, fullPath string) (int, bool) {
	if d == nil {
		return 0, false
	}
	if d.index == nil {
		d.Reindex()
	}
	i, ok := d.index[ItemKey(section, fullPath)]
	return i, ok
}

// Children returns the positions of the direct children of parentPath.
func (d *Dictionary) Children(section Section, parentPath string) []int {
	if d == nil {
		return nil
	}
	var out []int
	for i, it := range d.Items {
		if it.Section == section && it.ParentPath == parentPath {
			out = append(out, i)
		}
	}
	return out
}

// Names returns the sorted distinct names of non-88 items.
func (d *Dictionary) Names() []string {
	if d == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(d.Items))
	for _, it := range d.Items {
		if it.IsCondition() {
			continue
		}
		seen[it.Name] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ExclusionMatch selects how an exclusion pattern is compared to a name.
type ExclusionMatch string

const (
	MatchExact  ExclusionMatch = "NAME_EXACT"
	MatchPrefix ExclusionMatch = "NAME_PREFIX"
)

// ExclusionScopeAll applies a rule to every program.
const ExclusionScopeAll = "ALL"

// ExclusionRule drops matching declarations before the hierarchy is built.
type ExclusionRule struct {
	Scope   string         `json:"scope" yaml:"scope"`
	Match   ExclusionMatch `json:"match" yaml:"match"`
	Pattern string         `json:"pattern" yaml:"pattern"`
}
