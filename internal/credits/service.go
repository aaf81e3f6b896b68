package credits

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/medimeet/platform/internal/identity"
	"github.com/medimeet/platform/internal/observability/metrics"
	"github.com/medimeet/platform/internal/users"
	"github.com/medimeet/platform/pkg/logging"
)

var creditsTracer = otel.Tracer("medimeet.internal.credits")

// Ledger allocates plan entitlements and reports balances.
type Ledger struct {
	repo    *Repository
	metrics *metrics.CreditMetrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewLedger constructs the credit ledger service.
func NewLedger(repo *Repository, m *metrics.CreditMetrics, logger *logging.Logger) *Ledger {
	if repo == nil {
		panic("credits: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Ledger{repo: repo, metrics: m, logger: logger, now: time.Now}
}

// AllocateMonthly grants the caller's plan entitlement once per calendar
// month. Non-patients pass through unchanged, as do patients whose latest
// ledger entry already covers the current (month, plan) pair.
func (l *Ledger) AllocateMonthly(ctx context.Context, user *users.User, caller identity.Identity) (*users.User, error) {
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Role != identity.RolePatient {
		return user, nil
	}

	ctx, span := creditsTracer.Start(ctx, "credits.allocate_monthly")
	defer span.End()
	span.SetAttributes(attribute.String("medimeet.user_id", user.ID))

	plan, entitlement := currentPlan(caller)
	if plan == "" {
		return user, nil
	}

	currentMonth := l.now().Format("2006-01")
	latest, err := l.repo.LatestTransaction(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if latest != nil && latest.CreatedAt.Format("2006-01") == currentMonth && latest.PackageID == plan {
		// Already allocated for this month and plan.
		return user, nil
	}

	balance, err := l.repo.Allocate(ctx, user.ID, entitlement, plan)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	l.metrics.ObserveTransaction(string(TypeCreditPurchase), entitlement)
	l.logger.Info("monthly credits allocated",
		"user_id", user.ID,
		"plan", plan,
		"amount", entitlement,
		"balance", balance,
	)

	updated := *user
	updated.Credits = balance
	return &updated, nil
}

// currentPlan picks the highest tier the caller is entitled to.
func currentPlan(caller identity.Identity) (string, int) {
	switch {
	case caller.HasPlan(PlanPremium):
		return PlanPremium, PlanCredits[PlanPremium]
	case caller.HasPlan(PlanStandard):
		return PlanStandard, PlanCredits[PlanStandard]
	case caller.HasPlan(PlanFree):
		return PlanFree, PlanCredits[PlanFree]
	}
	return "", 0
}
