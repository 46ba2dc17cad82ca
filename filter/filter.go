package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Options captures the attachment filtering configuration.
type Options struct {
	IncludeSubject []string
	IncludeName    []string
	ExcludeSubject []string
	ExcludeName    []string
}

// Filter holds compiled regex patterns applied to decoded message subjects
// and attachment filenames. Include and exclude mode are mutually exclusive.
type Filter struct {
	includeMode    bool
	excludeMode    bool
	includeSubject []*regexp.Regexp
	includeName    []*regexp.Regexp
	excludeSubject []*regexp.Regexp
	excludeName    []*regexp.Regexp
}

// New creates a new Filter from the provided options.
func New(opts Options) (*Filter, error) {
	includeSubject, err := compilePatterns(opts.IncludeSubject)
	if err != nil {
		return nil, fmt.Errorf("compile include-subject pattern: %w", err)
	}
	includeName, err := compilePatterns(opts.IncludeName)
	if err != nil {
		return nil, fmt.Errorf("compile include-name pattern: %w", err)
	}
	excludeSubject, err := compilePatterns(opts.ExcludeSubject)
	if err != nil {
		return nil, fmt.Errorf("compile exclude-subject pattern: %w", err)
	}
	excludeName, err := compilePatterns(opts.ExcludeName)
	if err != nil {
		return nil, fmt.Errorf("compile exclude-name pattern: %w", err)
	}

	includeActive := len(includeSubject) > 0 || len(includeName) > 0
	excludeActive := len(excludeSubject) > 0 || len(excludeName) > 0
	if includeActive && excludeActive {
		return nil, fmt.Errorf("include and exclude filters are mutually exclusive")
	}

	return &Filter{
		includeMode:    includeActive,
		excludeMode:    excludeActive,
		includeSubject: includeSubject,
		includeName:    includeName,
		excludeSubject: excludeSubject,
		excludeName:    excludeName,
	}, nil
}

// Allows returns true if an attachment with the given message subject and
// decoded filename passes the filter criteria.
func (f *Filter) Allows(subject, filename string) bool {
	if f.includeMode {
		return matchAny(f.includeSubject, subject) || matchAny(f.includeName, filename)
	}

	if f.excludeMode {
		if matchAny(f.excludeSubject, subject) || matchAny(f.excludeName, filename) {
			return false
		}
	}

	return true
}

// Active reports whether any pattern is configured at all.
func (f *Filter) Active() bool {
	return f.includeMode || f.excludeMode
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	if len(patterns) == 0 {
		return false
	}
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
