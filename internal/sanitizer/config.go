package sanitizer

import (
	"fmt"
	"regexp"

	"sqlprep/internal/apperr"

	"gopkg.in/yaml.v3"
)

// Rule is one entry of the sanitizer list as read from configuration. The
// "step" key names the step, the remaining keys are its options.
type Rule map[string]any

// Config gives a step typed access to its rule options.
type Config struct {
	rule Rule
}

// String returns a string option, or def when unset.
func (c Config) String(key, def string) (string, error) {
	v, ok := c.rule[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", apperr.Configf("sanitizer option %q must be a string", key)
	}
	return s, nil
}

// StringList accepts either a single string or a list of strings.
func (c Config) StringList(key string, def []string) ([]string, error) {
	v, ok := c.rule[key]
	if !ok || v == nil {
		return def, nil
	}
	switch t := v.(type) {
	case string:
		return []string{t}, nil
	case []string:
		return t, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, apperr.Configf("sanitizer option %q must be a list of strings", key)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, apperr.Configf("sanitizer option %q must be a string or a list of strings", key)
	}
}

// Patterns compiles a list option into anchored regular expressions.
func (c Config) Patterns(key string) ([]*regexp.Regexp, error) {
	srcs, err := c.StringList(key, nil)
	if err != nil {
		return nil, err
	}
	out := make([]*regexp.Regexp, 0, len(srcs))
	for _, s := range srcs {
		re, err := regexp.Compile("^(?:" + s + ")$")
		if err != nil {
			return nil, &apperr.ConfigurationError{Msg: fmt.Sprintf("invalid pattern in sanitizer option %q", key), Err: err}
		}
		out = append(out, re)
	}
	return out, nil
}

type rulesFile struct {
	Sanitizers []Rule `yaml:"sanitizers"`
}

// ParseRules reads the "sanitizers" list of a YAML document.
func ParseRules(content []byte) ([]Rule, error) {
	var f rulesFile
	if err := yaml.Unmarshal(content, &f); err != nil {
		return nil, &apperr.ConfigurationError{Msg: "cannot parse sanitizer rules", Err: err}
	}
	return f.Sanitizers, nil
}
