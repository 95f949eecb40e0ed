// Package rules rewrites recognized text with deterministic substitutions
// loaded from a user rules file, so spoken shorthand ("new line", project
// jargon) comes out right before insertion.
package rules

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

type rule struct {
	re          *regexp.Regexp
	replacement string
}

// Engine applies substitutions until a fixpoint or the iteration limit.
// Rules are compiled once at load; Rewrite never fails.
type Engine struct {
	rules     []rule
	loopLimit int
}

// NewEngine loads a rules file. Each non-comment line is either a literal
// rule "from => to" (case-insensitive match) or a regex rule
// "/pattern/ => to". A missing file yields an empty engine.
func NewEngine(path string, loopLimit int) (*Engine, error) {
	if loopLimit <= 0 {
		loopLimit = 30
	}
	e := &Engine{loopLimit: loopLimit}

	if strings.TrimSpace(path) == "" {
		return e, nil
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return e, nil
		}
		return nil, fmt.Errorf("failed to read rules file %q: %w", path, err)
	}

	for index, raw := range strings.Split(string(contents), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r, err := parseRule(line)
		if err != nil {
			return nil, fmt.Errorf("rules file %q line %d: %w", path, index+1, err)
		}
		e.rules = append(e.rules, r)
	}
	return e, nil
}

func parseRule(line string) (rule, error) {
	parts := strings.SplitN(line, "=>", 2)
	if len(parts) != 2 {
		return rule{}, errors.New("expected \"from => to\"")
	}
	from := strings.TrimSpace(parts[0])
	to := strings.TrimSpace(parts[1])
	if from == "" {
		return rule{}, errors.New("rule source cannot be empty")
	}

	if len(from) >= 2 && strings.HasPrefix(from, "/") && strings.HasSuffix(from, "/") {
		re, err := regexp.Compile(from[1 : len(from)-1])
		if err != nil {
			return rule{}, fmt.Errorf("invalid pattern: %w", err)
		}
		return rule{re: re, replacement: to}, nil
	}

	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(from))
	if err != nil {
		return rule{}, fmt.Errorf("invalid literal source: %w", err)
	}
	return rule{re: re, replacement: to}, nil
}

// Rewrite transforms text deterministically.
func (e *Engine) Rewrite(text string) string {
	if len(e.rules) == 0 {
		return text
	}

	result := text
	for i := 0; i < e.loopLimit; i++ {
		changed := false
		for _, r := range e.rules {
			next := r.re.ReplaceAllString(result, r.replacement)
			if next != result {
				result = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return result
}

// Len returns the number of loaded rules.
func (e *Engine) Len() int { return len(e.rules) }
