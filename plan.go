package corral

// Plan is a subscription tier name as stored in the user table.
type Plan string

const (
	// PlanFree is the lowest public tier and the default for null columns.
	PlanFree Plan = "free"
	// PlanPro is the individual paid tier.
	PlanPro Plan = "pro"
	// PlanTeam is the multi-seat tier.
	PlanTeam Plan = "team"
	// PlanEnterprise is the top tier.
	PlanEnterprise Plan = "enterprise"
)

// planLevels is built once at init and never mutated. Unknown plan names are
// not in the map and therefore rank 0, same as PlanFree.
var planLevels = map[Plan]int{
	PlanFree:       0,
	PlanPro:        1,
	PlanTeam:       2,
	PlanEnterprise: 3,
}

// IsValid checks if the plan is one of the predefined tiers
func (p Plan) IsValid() bool {
	_, ok := planLevels[p]
	return ok
}

// Level returns the plan's rank in the tier hierarchy. Unknown plan names
// rank 0, so two unknown names compare equal.
func (p Plan) Level() int {
	return planLevels[p]
}

// IsAtLeast checks if this plan meets the minimum required tier
func (p Plan) IsAtLeast(min Plan) bool {
	return p.Level() >= min.Level()
}

// AllPlans returns all predefined plans in hierarchical order
func AllPlans() []Plan {
	return []Plan{
		PlanFree,
		PlanPro,
		PlanTeam,
		PlanEnterprise,
	}
}

// ParsePlan safely parses a string into a Plan type
func ParsePlan(planStr string) (Plan, bool) {
	plan := Plan(planStr)
	return plan, plan.IsValid()
}

// RequirePlan checks if the user's plan meets the minimum tier. It is a pure
// comparison with no I/O, meant to be layered on a successful ValidateSession.
func RequirePlan(user *User, plan Plan) bool {
	if user == nil {
		return false
	}
	return user.Plan.IsAtLeast(plan)
}
