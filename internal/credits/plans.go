package credits

// AppointmentCost is the fixed price of one appointment, in credits.
const AppointmentCost = 2

// Plan tiers as asserted by the identity provider.
const (
	PlanFree     = "free_user"
	PlanStandard = "standard"
	PlanPremium  = "premium"
)

// PlanCredits maps a subscription tier to its monthly credit entitlement.
var PlanCredits = map[string]int{
	PlanFree:     0,
	PlanStandard: 10,
	PlanPremium:  24,
}

// TransactionType tags ledger entries.
type TransactionType string

const (
	// TypeCreditPurchase marks monthly plan allocations.
	TypeCreditPurchase TransactionType = "CREDIT_PURCHASE"
	// TypeAppointmentDeduction marks appointment charges and their reversals.
	TypeAppointmentDeduction TransactionType = "APPOINTMENT_DEDUCTION"
)
