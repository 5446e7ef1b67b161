package domain_test

import (
	"testing"

	"github.com/phpsniff/phpsniff/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRuleset_Valid(t *testing.T) {
	assert.True(t, domain.RulesetWordPressCore.Valid())
	assert.True(t, domain.Ruleset("WordPress-Extra,WordPress-Docs").Valid())
	assert.True(t, domain.Ruleset(" WordPress , WordPress-Docs ").Valid())
	assert.False(t, domain.Ruleset("").Valid())
	assert.False(t, domain.Ruleset(",").Valid())
	assert.False(t, domain.Ruleset("PSR12").Valid())
	assert.False(t, domain.Ruleset("WordPress-Core,PSR12").Valid())
}

func TestNormalizeRuleset_FallsBackToDefault(t *testing.T) {
	assert.Equal(t, domain.DefaultRuleset, domain.NormalizeRuleset("Nope"))
	assert.Equal(t, domain.DefaultRuleset, domain.NormalizeRuleset(""))
	assert.Equal(t, domain.Ruleset("WordPress-Extra,WordPress-Docs"), domain.DefaultRuleset)
}

func TestNormalizeRuleset_CanonicalizesComposite(t *testing.T) {
	got := domain.NormalizeRuleset(" WordPress-Core ,WordPress-Docs")
	assert.Equal(t, domain.Ruleset("WordPress-Core,WordPress-Docs"), got)
}

func TestRulesets_StableOrder(t *testing.T) {
	first := domain.Rulesets()
	assert.Equal(t, first, domain.Rulesets())
	assert.Len(t, first, 4)
	for _, r := range first {
		assert.NotEmpty(t, r.Describe(), "ruleset %s should be described", r)
	}
}
