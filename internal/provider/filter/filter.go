// Package filter selects scenarios by name for quarantine.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bgricker/specdrive/internal/provider"
)

// Pattern is one compiled scenario selector. "/expr/" is a regular
// expression; anything else matches as a case-insensitive substring.
type Pattern struct {
	source string
	re     *regexp.Regexp
	needle string
}

// Set is an ordered list of patterns. The zero value matches nothing.
type Set []Pattern

// Compile parses raw selectors, dropping blank entries.
func Compile(raw []string) (Set, error) {
	set := make(Set, 0, len(raw))
	for _, src := range raw {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		p := Pattern{source: src}
		if expr, ok := regexBody(src); ok {
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("pattern %q: %w", src, err)
			}
			p.re = re
		} else {
			p.needle = strings.ToLower(src)
		}
		set = append(set, p)
	}
	return set, nil
}

func regexBody(src string) (string, bool) {
	if len(src) < 2 || src[0] != '/' || src[len(src)-1] != '/' {
		return "", false
	}
	return src[1 : len(src)-1], true
}

// String returns the selector as written.
func (p Pattern) String() string {
	return p.source
}

// Match reports whether name is selected. Empty names never match.
func (p Pattern) Match(name string) bool {
	switch {
	case name == "":
		return false
	case p.re != nil:
		return p.re.MatchString(name)
	default:
		return strings.Contains(strings.ToLower(name), p.needle)
	}
}

// Lookup returns the first pattern selecting the scenario, tried against the
// bare scenario name and against "Feature/Scenario".
func (s Set) Lookup(feature provider.Feature, scenario provider.Scenario) (Pattern, bool) {
	if len(s) == 0 {
		return Pattern{}, false
	}
	qualified := feature.Name + "/" + scenario.Name
	for _, p := range s {
		if p.Match(scenario.Name) || p.Match(qualified) {
			return p, true
		}
	}
	return Pattern{}, false
}

// Contains reports whether any pattern selects the scenario.
func (s Set) Contains(feature provider.Feature, scenario provider.Scenario) bool {
	_, ok := s.Lookup(feature, scenario)
	return ok
}
