package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orgmodels "reguard/internal/org/models"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestFilterRuleMatches(t *testing.T) {
	t.Run("set membership for kii category", func(t *testing.T) {
		rule := FilterRule{KIICategories: []int{1, 2}}

		assert.True(t, rule.Matches(orgmodels.Attributes{KIICategory: intPtr(1)}))
		assert.False(t, rule.Matches(orgmodels.Attributes{KIICategory: intPtr(3)}))
	})

	t.Run("absent attribute fails the clause", func(t *testing.T) {
		assert.False(t, FilterRule{KIICategories: []int{1, 2, 3}}.Matches(orgmodels.Attributes{}))
		assert.False(t, FilterRule{IsFinancial: boolPtr(false)}.Matches(orgmodels.Attributes{}))
		assert.False(t, FilterRule{MinEmployees: intPtr(0)}.Matches(orgmodels.Attributes{}))
	})

	t.Run("clauses are conjunctive", func(t *testing.T) {
		rule := FilterRule{
			KIICategories: []int{1},
			IsFinancial:   boolPtr(true),
		}
		attrs := orgmodels.Attributes{KIICategory: intPtr(1)}
		assert.False(t, rule.Matches(attrs), "second clause unmet")

		attrs.IsFinancial = boolPtr(true)
		assert.True(t, rule.Matches(attrs))
	})

	t.Run("employee bounds are inclusive", func(t *testing.T) {
		rule := FilterRule{MinEmployees: intPtr(100), MaxEmployees: intPtr(500)}

		assert.True(t, rule.Matches(orgmodels.Attributes{EmployeeCount: intPtr(100)}))
		assert.True(t, rule.Matches(orgmodels.Attributes{EmployeeCount: intPtr(500)}))
		assert.False(t, rule.Matches(orgmodels.Attributes{EmployeeCount: intPtr(99)}))
		assert.False(t, rule.Matches(orgmodels.Attributes{EmployeeCount: intPtr(501)}))
	})

	t.Run("boolean clause requires exact value", func(t *testing.T) {
		rule := FilterRule{IsGovernment: boolPtr(false)}

		assert.True(t, rule.Matches(orgmodels.Attributes{IsGovernment: boolPtr(false)}))
		assert.False(t, rule.Matches(orgmodels.Attributes{IsGovernment: boolPtr(true)}))
	})

	t.Run("rule with zero clauses matches nothing", func(t *testing.T) {
		attrs := orgmodels.Attributes{KIICategory: intPtr(1), IsFinancial: boolPtr(true)}
		assert.False(t, FilterRule{}.Matches(attrs))
	})
}

func TestFilterRuleValidate(t *testing.T) {
	t.Run("rejects empty rule", func(t *testing.T) {
		require.Error(t, FilterRule{}.Validate())
	})

	t.Run("rejects out-of-range enums", func(t *testing.T) {
		require.Error(t, FilterRule{KIICategories: []int{0}}.Validate())
		require.Error(t, FilterRule{KIICategories: []int{4}}.Validate())
		require.Error(t, FilterRule{PDNLevels: []int{5}}.Validate())
	})

	t.Run("rejects inverted employee bounds", func(t *testing.T) {
		require.Error(t, FilterRule{MinEmployees: intPtr(10), MaxEmployees: intPtr(5)}.Validate())
	})

	t.Run("accepts a single clause", func(t *testing.T) {
		require.NoError(t, FilterRule{PDNLevels: []int{1, 2}}.Validate())
	})
}

func TestParseOverrideKind(t *testing.T) {
	kind, err := ParseOverrideKind("include")
	require.NoError(t, err)
	assert.Equal(t, KindManualInclude, kind)

	kind, err = ParseOverrideKind("exclude")
	require.NoError(t, err)
	assert.Equal(t, KindManualExclude, kind)

	_, err = ParseOverrideKind("automatic_include")
	require.Error(t, err)
}

func TestVerdictApplies(t *testing.T) {
	assert.True(t, OrganizationVerdict{Kind: KindAutomaticInclude}.Applies())
	assert.True(t, OrganizationVerdict{Kind: KindManualInclude}.Applies())
	assert.False(t, OrganizationVerdict{Kind: KindAutomaticExclude}.Applies())
	assert.False(t, OrganizationVerdict{Kind: KindManualExclude}.Applies())
}
