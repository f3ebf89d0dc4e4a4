// Package rewrite substitutes literal strings in index documents so the same
// content tree can be shipped to different deployment targets.
package rewrite

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrOverlap is returned when two matches share bytes. Source literals
	// must be chosen so this cannot happen.
	ErrOverlap = errors.New("overlapping rewrite matches")
	// ErrEmptySource is returned for a rule without a source literal.
	ErrEmptySource = errors.New("empty rewrite source")
)

// Rule replaces every occurrence of From with To.
type Rule struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Rules is an ordered rule set.
type Rules []Rule

// Validate checks that every rule has a source literal.
func (rs Rules) Validate() error {
	for i, r := range rs {
		if r.From == "" {
			return fmt.Errorf("rule %d: %w", i, ErrEmptySource)
		}
	}
	return nil
}

type match struct {
	start int
	rule  int
}

// Rewrite replaces all occurrences of every rule's source in text. All rules
// are scanned against the original text, so a target is never rewritten
// again by a later rule.
func Rewrite(text string, rules Rules) (string, error) {
	if err := rules.Validate(); err != nil {
		return "", err
	}

	var matches []match
	for i, r := range rules {
		offset := 0
		for {
			idx := strings.Index(text[offset:], r.From)
			if idx < 0 {
				break
			}
			matches = append(matches, match{start: offset + idx, rule: i})
			offset += idx + len(r.From)
		}
	}
	if len(matches) == 0 {
		return text, nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].start < matches[j].start
	})

	var b strings.Builder
	b.Grow(len(text))
	cursor := 0
	for _, m := range matches {
		if m.start < cursor {
			return "", fmt.Errorf("%w: %q at offset %d", ErrOverlap, rules[m.rule].From, m.start)
		}
		b.WriteString(text[cursor:m.start])
		b.WriteString(rules[m.rule].To)
		cursor = m.start + len(rules[m.rule].From)
	}
	b.WriteString(text[cursor:])
	return b.String(), nil
}
