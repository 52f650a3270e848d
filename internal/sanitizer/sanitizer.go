package sanitizer

import (
	"regexp"
	"sort"
	"strings"

	"sqlprep/internal/apperr"
)

// Step transforms the names and address parts of a place in place.
type Step interface {
	Process(info *ProcessInfo)
}

// StepFunc adapts a function to Step.
type StepFunc func(info *ProcessInfo)

func (f StepFunc) Process(info *ProcessInfo) { f(info) }

// Factory builds a Step from its rule options.
type Factory func(cfg Config) (Step, error)

var registry = map[string]Factory{
	"split-name-list":   newSplitNameList,
	"strip-brace-terms": newStripBraceTerms,
	"delete-tags":       newDeleteTags,
}

// Steps lists the registered step names.
func Steps() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// PlaceSanitizer applies a chain of steps to places.
type PlaceSanitizer struct {
	steps []Step
}

// New builds the step chain from rules, in order.
func New(rules []Rule) (*PlaceSanitizer, error) {
	s := &PlaceSanitizer{}
	for i, rule := range rules {
		raw, ok := rule["step"]
		if !ok {
			return nil, apperr.Configf("sanitizer rule %d is missing the 'step' attribute", i)
		}
		name, ok := raw.(string)
		if !ok {
			return nil, apperr.Configf("sanitizer rule %d: 'step' attribute must be a simple string", i)
		}
		factory, ok := registry[name]
		if !ok {
			return nil, apperr.Configf("sanitizer rule %d: unknown step %q", i, name)
		}
		step, err := factory(Config{rule: rule})
		if err != nil {
			return nil, err
		}
		s.steps = append(s.steps, step)
	}
	return s, nil
}

// ProcessNames returns the sanitized names and address parts of place.
func (s *PlaceSanitizer) ProcessNames(place PlaceInfo) (names, address []PlaceName) {
	info := newProcessInfo(place)
	for _, step := range s.steps {
		step.Process(info)
	}
	return info.Names, info.Address
}

// newSplitNameList splits names on any of the configured delimiters.
func newSplitNameList(cfg Config) (Step, error) {
	delims, err := cfg.String("delimiters", ",;")
	if err != nil {
		return nil, err
	}
	if delims == "" {
		return nil, apperr.Configf("split-name-list: no delimiters given")
	}
	isDelim := func(r rune) bool { return strings.ContainsRune(delims, r) }

	return StepFunc(func(info *ProcessInfo) {
		var out []PlaceName
		for _, n := range info.Names {
			seen := map[string]bool{}
			for _, part := range strings.FieldsFunc(n.Name, isDelim) {
				part = strings.TrimSpace(part)
				if part == "" || seen[part] {
					continue
				}
				seen[part] = true
				out = append(out, n.Clone(part))
			}
		}
		info.Names = out
	}), nil
}

// newStripBraceTerms adds a variant without the bracketed tail of a name.
func newStripBraceTerms(Config) (Step, error) {
	return StepFunc(func(info *ProcessInfo) {
		out := info.Names[:len(info.Names):len(info.Names)]
		for _, n := range info.Names {
			head, _, found := strings.Cut(n.Name, "(")
			if !found {
				continue
			}
			if head = strings.TrimSpace(head); head != "" {
				out = append(out, n.Clone(head))
			}
		}
		info.Names = out
	}), nil
}

// newDeleteTags drops names whose kind, suffix and value all match the
// configured patterns. Unset patterns match everything.
func newDeleteTags(cfg Config) (Step, error) {
	target, err := cfg.String("type", "name")
	if err != nil {
		return nil, err
	}
	if target != "name" && target != "address" {
		return nil, apperr.Configf("delete-tags: type must be 'name' or 'address', got %q", target)
	}
	kinds, err := cfg.Patterns("filter-kind")
	if err != nil {
		return nil, err
	}
	suffixes, err := cfg.Patterns("suffix")
	if err != nil {
		return nil, err
	}
	values, err := cfg.Patterns("name")
	if err != nil {
		return nil, err
	}
	if len(kinds)+len(suffixes)+len(values) == 0 {
		return nil, apperr.Configf("delete-tags: at least one of filter-kind, suffix or name is required")
	}

	matches := func(n PlaceName) bool {
		return anyMatch(kinds, n.Kind) && anyMatch(suffixes, n.Suffix) && anyMatch(values, n.Name)
	}
	return StepFunc(func(info *ProcessInfo) {
		list := &info.Names
		if target == "address" {
			list = &info.Address
		}
		kept := (*list)[:0]
		for _, n := range *list {
			if !matches(n) {
				kept = append(kept, n)
			}
		}
		*list = kept
	}), nil
}

func anyMatch(res []*regexp.Regexp, s string) bool {
	if len(res) == 0 {
		return true
	}
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
