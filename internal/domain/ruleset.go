package domain

import (
	"sort"
	"strings"
)

// Ruleset names a coding standard understood by the analysis tool.
type Ruleset string

const (
	RulesetWordPress      Ruleset = "WordPress"
	RulesetWordPressCore  Ruleset = "WordPress-Core"
	RulesetWordPressDocs  Ruleset = "WordPress-Docs"
	RulesetWordPressExtra Ruleset = "WordPress-Extra"
)

// DefaultRuleset is substituted whenever a configured ruleset is not in the catalog.
const DefaultRuleset = RulesetWordPressExtra + "," + RulesetWordPressDocs

// rulesetCatalog lists the known single standards and their descriptions.
var rulesetCatalog = map[Ruleset]string{
	RulesetWordPress:      "Complete WordPress standard (core, extra and docs)",
	RulesetWordPressCore:  "Main WordPress coding standard",
	RulesetWordPressDocs:  "Inline documentation standard",
	RulesetWordPressExtra: "Core plus best-practice sniffs",
}

// Rulesets returns the catalog's single standards in stable order.
func Rulesets() []Ruleset {
	out := make([]Ruleset, 0, len(rulesetCatalog))
	for r := range rulesetCatalog {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Describe returns the catalog description for a single standard.
func (r Ruleset) Describe() string {
	return rulesetCatalog[r]
}

// Parts splits a composite ruleset into its comma-separated members.
func (r Ruleset) Parts() []Ruleset {
	var parts []Ruleset
	for _, p := range strings.Split(string(r), ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, Ruleset(p))
		}
	}
	return parts
}

// Valid reports whether every member of the ruleset is in the catalog.
// An empty ruleset is invalid.
func (r Ruleset) Valid() bool {
	parts := r.Parts()
	if len(parts) == 0 {
		return false
	}
	for _, p := range parts {
		if _, ok := rulesetCatalog[p]; !ok {
			return false
		}
	}
	return true
}

// NormalizeRuleset returns r in canonical comma-joined form, or
// DefaultRuleset when r is not valid.
func NormalizeRuleset(r Ruleset) Ruleset {
	if !r.Valid() {
		return DefaultRuleset
	}
	parts := r.Parts()
	names := make([]string, len(parts))
	for i, p := range parts {
		names[i] = string(p)
	}
	return Ruleset(strings.Join(names, ","))
}
