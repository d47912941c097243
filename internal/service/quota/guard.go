// Package quota implements per-plan admission control for chat turns.
//
// Counters are reset externally at UTC midnight. The guard only reads them;
// the charge itself is a conditional update in the user repository so that
// concurrent turns cannot overshoot the cap.
package quota

import (
	"math"
	"time"

	"github.com/sterling9879/Sage-IA/internal/domain/models"
)

// Unlimited is the Remaining/limit sentinel for plans without a cap. It is
// distinct from 0, which means no messages are left.
const Unlimited = -1

// State is the quota-relevant slice of a user.
type State struct {
	Plan          models.Plan
	MessagesUsed  int
	MessagesLimit int
}

// StateOf extracts the quota state of a user.
func StateOf(u *models.User) State {
	return State{Plan: u.Plan, MessagesUsed: u.MessagesUsed, MessagesLimit: u.MessagesLimit}
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed   bool
	Used      int
	Limit     int // Unlimited for uncapped plans
	Remaining int // Unlimited for uncapped plans
}

// PlanLimit is the static allowance of a plan.
type PlanLimit struct {
	MessagesPerDay      int // Unlimited for no cap
	MaxTokensPerMessage int // output ceiling per reply
}

// Guard makes admission decisions. It is stateless apart from the plan table.
type Guard struct {
	limits map[models.Plan]PlanLimit
}

// DefaultLimits returns the plan table with the given daily message caps.
func DefaultLimits(freePerDay, proPerDay int) map[models.Plan]PlanLimit {
	return map[models.Plan]PlanLimit{
		models.PlanFree:      {MessagesPerDay: freePerDay, MaxTokensPerMessage: 2000},
		models.PlanPro:       {MessagesPerDay: proPerDay, MaxTokensPerMessage: 4000},
		models.PlanUnlimited: {MessagesPerDay: Unlimited, MaxTokensPerMessage: 8000},
	}
}

// NewGuard creates a guard over a plan table.
func NewGuard(limits map[models.Plan]PlanLimit) *Guard {
	return &Guard{limits: limits}
}

// Limit returns the plan's static allowance. Unknown plans get a zero limit.
func (g *Guard) Limit(plan models.Plan) PlanLimit {
	return g.limits[plan]
}

// MessagesLimit is the daily cap stored on a user of the given plan.
func (g *Guard) MessagesLimit(plan models.Plan) int {
	return g.limits[plan].MessagesPerDay
}

// CanSend reports whether one more message is allowed today.
func (g *Guard) CanSend(s State) bool {
	switch s.Plan {
	case models.PlanUnlimited:
		return true
	case models.PlanFree, models.PlanPro:
		return s.MessagesUsed < s.MessagesLimit
	default:
		// unknown plans fail closed
		return false
	}
}

// Remaining returns the messages left today: never negative, Unlimited for
// uncapped plans.
func (g *Guard) Remaining(s State) int {
	switch s.Plan {
	case models.PlanUnlimited:
		return Unlimited
	case models.PlanFree, models.PlanPro:
		return max(0, s.MessagesLimit-s.MessagesUsed)
	default:
		return 0
	}
}

// UsagePercent is min(100, used/limit*100), for display only. Uncapped plans
// report 0 and a non-positive limit reports 100.
func (g *Guard) UsagePercent(s State) float64 {
	switch s.Plan {
	case models.PlanUnlimited:
		return 0
	case models.PlanFree, models.PlanPro:
		if s.MessagesLimit <= 0 {
			return 100
		}
		pct := float64(s.MessagesUsed) / float64(s.MessagesLimit) * 100
		return math.Min(100, math.Max(0, pct))
	default:
		return 100
	}
}

// Check combines CanSend and Remaining into one decision.
func (g *Guard) Check(s State) Decision {
	limit := s.MessagesLimit
	if s.Plan == models.PlanUnlimited {
		limit = Unlimited
	}
	return Decision{
		Allowed:   g.CanSend(s),
		Used:      s.MessagesUsed,
		Limit:     limit,
		Remaining: g.Remaining(s),
	}
}

// DayStart returns UTC midnight of the day containing t. Admission, the reset
// job and dashboard aggregation all use this boundary.
func DayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NextReset returns the next UTC midnight after t.
func NextReset(t time.Time) time.Time {
	return DayStart(t).AddDate(0, 0, 1)
}
