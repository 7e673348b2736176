package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reguard/internal/access"
	"reguard/internal/access/token"
	applicabilitymodels "reguard/internal/applicability/models"
	applicabilityservice "reguard/internal/applicability/service"
	orgmodels "reguard/internal/org/models"
	orgservice "reguard/internal/org/service"
	requirementservice "reguard/internal/requirement/service"
	id "reguard/pkg/domain"
)

// seed populates a fresh tenant with sample data and logs an admin bearer
// token so the API is usable immediately. Development only; the flag is
// ignored in any serious deployment.
func seed(
	ctx context.Context,
	log *slog.Logger,
	policy *access.Policy,
	tokens *token.Service,
	orgs *orgservice.Service,
	requirements *requirementservice.Service,
	applicability *applicabilityservice.Service,
) error {
	tenantID := id.NewTenantID()
	userID := id.NewUserID()

	actx, err := access.NewContext(userID, tenantID, policy.PermissionsFor([]access.Role{access.RoleAdmin}))
	if err != nil {
		return err
	}

	req, err := requirements.Create(ctx, actx, "187-FZ-12",
		"Critical information infrastructure categorization",
		"Applies to operators of significant CII objects.")
	if err != nil {
		return err
	}

	intp := func(v int) *int { return &v }
	boolp := func(v bool) *bool { return &v }

	plant, err := orgs.Create(ctx, actx, "Volga Power Plant", orgmodels.Attributes{
		KIICategory:   intp(1),
		EmployeeCount: intp(1200),
	})
	if err != nil {
		return err
	}
	bank, err := orgs.Create(ctx, actx, "Severny Bank", orgmodels.Attributes{
		IsFinancial:   boolp(true),
		PDNLevel:      intp(2),
		EmployeeCount: intp(340),
	})
	if err != nil {
		return err
	}
	if _, err := orgs.Create(ctx, actx, "Bright Design Studio", orgmodels.Attributes{}); err != nil {
		return err
	}

	if err := applicability.SetAutomaticRule(ctx, actx, req.ID, applicabilitymodels.FilterRule{
		KIICategories: []int{1, 2},
	}); err != nil {
		return err
	}
	if err := applicability.AddManualOverride(ctx, actx, req.ID, bank.ID,
		applicabilitymodels.KindManualInclude, "regulator directive 2024-117"); err != nil {
		return err
	}

	bearer, err := tokens.GenerateToken(uuid.UUID(userID), uuid.UUID(tenantID), []string{string(access.RoleAdmin)}, 24*time.Hour)
	if err != nil {
		return err
	}

	log.Info("dev seed complete",
		"tenant_id", tenantID,
		"requirement_id", req.ID,
		"kii_org_id", plant.ID,
		"override_org_id", bank.ID,
		"bearer_token", bearer,
	)
	return nil
}
