package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "reguard/pkg/domain"
	dErrors "reguard/pkg/domain-errors"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestAttributesValidate(t *testing.T) {
	t.Run("empty profile is valid", func(t *testing.T) {
		assert.NoError(t, Attributes{}.Validate())
	})

	t.Run("ranges are enforced only when recorded", func(t *testing.T) {
		assert.NoError(t, Attributes{KIICategory: intPtr(3), PDNLevel: intPtr(4)}.Validate())

		assert.True(t, dErrors.HasCode(Attributes{KIICategory: intPtr(0)}.Validate(), dErrors.CodeValidation))
		assert.True(t, dErrors.HasCode(Attributes{KIICategory: intPtr(4)}.Validate(), dErrors.CodeValidation))
		assert.True(t, dErrors.HasCode(Attributes{PDNLevel: intPtr(5)}.Validate(), dErrors.CodeValidation))
		assert.True(t, dErrors.HasCode(Attributes{EmployeeCount: intPtr(-1)}.Validate(), dErrors.CodeValidation))
	})
}

func TestNewOrganization(t *testing.T) {
	now := time.Now()

	t.Run("constructs with timestamps", func(t *testing.T) {
		org, err := NewOrganization(id.NewOrganizationID(), id.NewTenantID(), "Acme Works", Attributes{
			IsGovernment: boolPtr(false),
		}, now)
		require.NoError(t, err)
		assert.Equal(t, now, org.CreatedAt)
		assert.Equal(t, now, org.UpdatedAt)
	})

	t.Run("rejects missing identity and name", func(t *testing.T) {
		_, err := NewOrganization(id.OrganizationID{}, id.NewTenantID(), "Acme", Attributes{}, now)
		assert.Error(t, err)

		_, err = NewOrganization(id.NewOrganizationID(), id.TenantID{}, "Acme", Attributes{}, now)
		assert.Error(t, err)

		_, err = NewOrganization(id.NewOrganizationID(), id.NewTenantID(), "", Attributes{}, now)
		assert.Error(t, err)
	})

	t.Run("rejects invalid attributes", func(t *testing.T) {
		_, err := NewOrganization(id.NewOrganizationID(), id.NewTenantID(), "Acme", Attributes{
			PDNLevel: intPtr(9),
		}, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
