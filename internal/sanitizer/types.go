// Package sanitizer cleans the name and address tags of a place before
// they are handed on for token analysis. A PlaceSanitizer is a fixed chain
// of steps configured from a list of rules.
package sanitizer

import (
	"sort"
	"strings"
)

// PlaceInfo is the raw tag data of a place.
type PlaceInfo struct {
	Name    map[string]string
	Address map[string]string
}

// PlaceName is one name or address part. A tag key "name:de" becomes kind
// "name" with suffix "de".
type PlaceName struct {
	Name   string
	Kind   string
	Suffix string
	Attr   map[string]string
}

// Clone copies p, replacing the name when one is given.
func (p PlaceName) Clone(name string) PlaceName {
	c := p
	if name != "" {
		c.Name = name
	}
	if p.Attr != nil {
		c.Attr = make(map[string]string, len(p.Attr))
		for k, v := range p.Attr {
			c.Attr[k] = v
		}
	}
	return c
}

// SetAttr sets an attribute, allocating the map on first use.
func (p *PlaceName) SetAttr(key, value string) {
	if p.Attr == nil {
		p.Attr = map[string]string{}
	}
	p.Attr[key] = value
}

// ProcessInfo is the mutable state passed through the steps.
type ProcessInfo struct {
	Place   PlaceInfo
	Names   []PlaceName
	Address []PlaceName
}

func newProcessInfo(place PlaceInfo) *ProcessInfo {
	return &ProcessInfo{
		Place:   place,
		Names:   fromTags(place.Name),
		Address: fromTags(place.Address),
	}
}

// fromTags converts a tag map into names, ordered by key.
func fromTags(tags map[string]string) []PlaceName {
	if len(tags) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]PlaceName, 0, len(keys))
	for _, k := range keys {
		kind, suffix, _ := strings.Cut(k, ":")
		out = append(out, PlaceName{Name: tags[k], Kind: kind, Suffix: suffix})
	}
	return out
}
