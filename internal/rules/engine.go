// Package rules provides a YAML-based rules engine for transaction categorization.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
)

//go:embed rules.yaml
var embeddedRules []byte

// MatchType defines how patterns are matched against vendor names
type MatchType string

const (
	// MatchTypeExact requires the pattern to match the entire vendor name exactly
	MatchTypeExact MatchType = "exact"
	// MatchTypeContains requires the pattern to be a substring of the vendor name
	MatchTypeContains MatchType = "contains"
)

// Rule represents a single categorization rule.
//
// Rules should be created via YAML loading (NewEngine, LoadEmbedded,
// LoadFromFile), which validates all invariants:
//   - Priority in range [0, 999]
//   - Pattern must not be empty after trimming
//   - MatchType must be "exact" or "contains"
//   - Category must not be empty
//
// Fields are exported for YAML unmarshaling and testing. Direct struct
// construction bypasses validation.
type Rule struct {
	Name      string    `yaml:"name"`
	Pattern   string    `yaml:"pattern"`
	MatchType MatchType `yaml:"match_type"`
	Priority  int       `yaml:"priority"`
	Category  string    `yaml:"category"`
}

// RuleSet represents the top-level YAML structure
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// Engine performs rule matching on vendor names
type Engine struct {
	rules []Rule // Sorted by priority (highest first)
}

// NewEngine creates a rules engine from YAML data
func NewEngine(rulesData []byte) (*Engine, error) {
	var ruleSet RuleSet
	if err := yaml.Unmarshal(rulesData, &ruleSet); err != nil {
		return nil, fmt.Errorf("failed to parse YAML rules (check syntax, indentation, and field names): %w", err)
	}

	for i, rule := range ruleSet.Rules {
		if strings.TrimSpace(rule.Category) == "" {
			return nil, fmt.Errorf("rule %d (%s): category cannot be empty", i, rule.Name)
		}

		if rule.Priority < 0 || rule.Priority > 999 {
			return nil, fmt.Errorf("rule %d (%s): priority must be in [0,999], got %d", i, rule.Name, rule.Priority)
		}

		if rule.MatchType != MatchTypeExact && rule.MatchType != MatchTypeContains {
			return nil, fmt.Errorf("rule %d (%s): invalid match_type %q (must be 'exact' or 'contains')", i, rule.Name, rule.MatchType)
		}

		if strings.TrimSpace(rule.Pattern) == "" {
			return nil, fmt.Errorf("rule %d (%s): pattern cannot be empty", i, rule.Name)
		}
	}

	// Sort rules by priority (highest first). Use SliceStable to preserve YAML file
	// order for rules with equal priority (guarantees deterministic matching).
	sortedRules := make([]Rule, len(ruleSet.Rules))
	copy(sortedRules, ruleSet.Rules)
	sort.SliceStable(sortedRules, func(i, j int) bool {
		return sortedRules[i].Priority > sortedRules[j].Priority
	})

	return &Engine{
		rules: sortedRules,
	}, nil
}

// LoadEmbedded loads the embedded rules.yaml file
func LoadEmbedded() (*Engine, error) {
	engine, err := NewEngine(embeddedRules)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded rules (possible binary corruption): %w", err)
	}
	return engine, nil
}

// LoadFromFile loads rules from a filesystem path
func LoadFromFile(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	engine, err := NewEngine(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules from %q: %w", path, err)
	}
	return engine, nil
}

// Match applies rules to a vendor name and returns the category of the first
// match. Rules are evaluated in priority order (highest first). Rules with
// equal priority are evaluated in their original YAML file order (stable sort
// in NewEngine preserves this ordering). Returns ("", false) if no rules match.
func (e *Engine) Match(vendor string) (string, bool) {
	normalizedVendor := normalizeVendor(vendor)

	for _, rule := range e.rules {
		normalizedPattern := normalizeVendor(rule.Pattern)

		matched := false
		switch rule.MatchType {
		case MatchTypeExact:
			matched = normalizedVendor == normalizedPattern
		case MatchTypeContains:
			matched = strings.Contains(normalizedVendor, normalizedPattern)
		}

		if matched {
			return rule.Category, true
		}
	}

	return "", false
}

// Categorize fills in the category of every candidate that has none, leaving
// already-categorized rows untouched. Candidates whose vendor matches no rule
// keep their empty category.
func (e *Engine) Categorize(candidates []domain.Candidate) {
	for i := range candidates {
		if candidates[i].Category != "" {
			continue
		}
		if category, ok := e.Match(candidates[i].Vendor); ok {
			candidates[i].Category = category
		}
	}
}

// GetRules returns a copy of the rules for inspection/debugging.
// Rules are returned in priority order (highest first). For equal priorities,
// rules appear in YAML file order (stable sort).
func (e *Engine) GetRules() []Rule {
	result := make([]Rule, len(e.rules))
	copy(result, e.rules)
	return result
}

// normalizeVendor lowercases, trims, and strips diacritics so that statement
// vendor names like "Café Río" match plain-ASCII rule patterns.
func normalizeVendor(vendor string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, vendor)
	if err != nil {
		stripped = vendor
	}
	return strings.ToLower(strings.TrimSpace(stripped))
}
