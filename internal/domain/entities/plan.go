package entities

// VipPlanID identifies a purchasable VIP plan.
type VipPlanID string

const (
	VipPlanWeekly    VipPlanID = "weekly"
	VipPlanMonthly   VipPlanID = "monthly"
	VipPlanPermanent VipPlanID = "permanent"
)

// VipPlan carries the fixed (amount, duration) pair for a plan. Both values
// live server-side only; the client picks a plan id and nothing else.
type VipPlan struct {
	ID           VipPlanID
	Amount       float64
	DurationDays int
	Description  string
}

// "permanent" is modeled as a hundred-year window rather than a separate
// never-expires flag, which keeps the extension arithmetic uniform.
var vipPlans = map[VipPlanID]VipPlan{
	VipPlanWeekly:    {ID: VipPlanWeekly, Amount: 9.90, DurationDays: 7, Description: "VIP weekly pass"},
	VipPlanMonthly:   {ID: VipPlanMonthly, Amount: 19.90, DurationDays: 30, Description: "VIP monthly pass"},
	VipPlanPermanent: {ID: VipPlanPermanent, Amount: 199.00, DurationDays: 36500, Description: "VIP permanent pass"},
}

// ReportPrice is the fixed price of a single report unlock.
const ReportPrice = 16.60

const ReportDescription = "Fortune report unlock"

// LookupVipPlan resolves a plan id against the server-side plan table.
func LookupVipPlan(id VipPlanID) (VipPlan, bool) {
	p, ok := vipPlans[id]
	return p, ok
}
