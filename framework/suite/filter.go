package suite

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter is a function that can determine whether to run a specific test case or not.
type Filter interface {
	Match(id CaseID) bool
}

// RegexFilters selects cases with the -run and -skip patterns. A pattern has one regex per ID
// component, separated by slashes, so "calc/.*/div" matches every case in a group containing
// "calc" whose name contains "div".
type RegexFilters struct {
	MustMatch    CaseIDPatternList
	MustNotMatch CaseIDPatternList
}

func (r RegexFilters) Match(id CaseID) bool {
	parts := id.Parts()
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatch(parts)) &&
		!r.MustNotMatch.AnyMatch(parts)
}

// IsDefined returns true if either list has a pattern.
func (r RegexFilters) IsDefined() bool {
	return r.MustMatch.IsDefined() || r.MustNotMatch.IsDefined()
}

func (r RegexFilters) String() string {
	var parts []string
	if r.MustMatch.IsDefined() {
		parts = append(parts, "run "+r.MustMatch.String())
	}
	if r.MustNotMatch.IsDefined() {
		parts = append(parts, "skip "+r.MustNotMatch.String())
	}
	return strings.Join(parts, ", ")
}

type CaseIDPattern []*regexp.Regexp

// Match checks each component of the pattern against the same component of the ID. A pattern
// with fewer components than the ID matches everything below the components it names.
func (p CaseIDPattern) Match(parts []string) bool {
	if len(p) > len(parts) {
		return false
	}
	for i, rx := range p {
		if !rx.MatchString(parts[i]) {
			return false
		}
	}
	return true
}

func (p CaseIDPattern) String() string {
	ss := make([]string, 0, len(p))
	for _, c := range p {
		ss = append(ss, c.String())
	}
	return strings.Join(ss, "/")
}

func ParseCaseIDPattern(s string) (CaseIDPattern, error) {
	parts := strings.Split(s, "/")
	ret := make(CaseIDPattern, 0, len(parts))
	for _, part := range parts {
		rx, err := regexp.Compile(part)
		if err != nil {
			return nil, fmt.Errorf("invalid regex: %w", err)
		}
		ret = append(ret, rx)
	}
	return ret, nil
}

type CaseIDPatternList []CaseIDPattern

func (l CaseIDPatternList) String() string {
	ss := make([]string, 0, len(l))
	for _, p := range l {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser
func (l *CaseIDPatternList) Set(value string) error {
	p, err := ParseCaseIDPattern(value)
	if err != nil {
		return err
	}
	*l = append(*l, p)
	return nil
}

func (l CaseIDPatternList) IsDefined() bool {
	return len(l) != 0
}

func (l CaseIDPatternList) AnyMatch(parts []string) bool {
	for _, p := range l {
		if p.Match(parts) {
			return true
		}
	}
	return false
}
