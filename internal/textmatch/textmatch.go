// Package textmatch extracts named regex group matches from scanner output.
// Patterns are combined into a single alternation and results come back as a
// lazy, restartable iterator in left to right string order.
package textmatch

import (
	"fmt"
	"iter"
	"regexp"
	"strings"
)

// Matcher is a compiled, reusable set of named patterns. The list order of
// the patterns matters in ordered mode, see Each.
type Matcher struct {
	re *regexp.Regexp
}

// Compile joins the patterns into one multiline alternation. Each pattern is
// expected to carry a named capture group, e.g `(?P<family>\S+) FOUND`.
func Compile(patterns ...string) (*Matcher, error) {
	if len(patterns) == 0 {
		return &Matcher{}, nil
	}
	re, err := regexp.Compile("(?m)" + strings.Join(patterns, "|"))
	if err != nil {
		return nil, fmt.Errorf("compiling patterns: %w", err)
	}
	return &Matcher{re: re}, nil
}

func MustCompile(patterns ...string) *Matcher {
	m, err := Compile(patterns...)
	if err != nil {
		panic(err)
	}
	return m
}

// Each yields a (group name, matched text) pair for every non-overlapping
// match found in s. The sequence is pure with respect to s and can be ranged
// over repeatedly.
//
// With inOrder set, a pattern listed at position i only yields once a
// pattern listed at position <= i has already yielded earlier in the scan,
// so the first listed pattern is always eligible. A yielded match raises the
// bar to its own list position; matches from patterns below the bar are
// silently dropped, not deferred.
func (m *Matcher) Each(s string, inOrder bool) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if m.re == nil {
			return
		}
		names := m.re.SubexpNames()
		bar := -1
		for _, loc := range m.re.FindAllStringSubmatchIndex(s, -1) {
			for i, name := range names {
				if name == "" || loc[2*i] < 0 {
					continue
				}
				if inOrder {
					if i < bar {
						continue
					}
					bar = i
				}
				if !yield(name, s[loc[2*i]:loc[2*i+1]]) {
					return
				}
			}
		}
	}
}

// EachMatch is a convenience for a one-shot scan with literal patterns.
func EachMatch(s string, patterns []string, inOrder bool) (iter.Seq2[string, string], error) {
	m, err := Compile(patterns...)
	if err != nil {
		return nil, err
	}
	return m.Each(s, inOrder), nil
}
