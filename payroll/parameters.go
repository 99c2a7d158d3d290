package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// LeaveCostMode decides how leave days are paid.
type LeaveCostMode string

const (
	// LeaveFull counts leave days as worked, capped at a full month.
	LeaveFull LeaveCostMode = "full"
	// LeaveProrated pays worked/30 + leave/30, unclamped.
	LeaveProrated LeaveCostMode = "prorated"
	// LeaveHybrid is LeaveProrated over BusinessDaysPerMonth.
	LeaveHybrid LeaveCostMode = "hybrid"
)

func (m LeaveCostMode) Valid() bool {
	return m == LeaveFull || m == LeaveProrated || m == LeaveHybrid
}

// Parameters is the single pay configuration row. Rates are percentages.
type Parameters struct {
	HardshipRate          decimal.Decimal
	PermanenceRate        decimal.Decimal
	SeniorityRatePerYear  decimal.Decimal
	EncouragementRate     decimal.Decimal
	EncouragementMinYears int

	DriverDailyAmount    decimal.Decimal
	NightSecurityAmount  decimal.Decimal
	MealDailyAmount      decimal.Decimal
	TransportDailyAmount decimal.Decimal
	SpouseAtHomeAmount   decimal.Decimal

	SocialSecurityRate decimal.Decimal

	OvertimeEnabled    bool
	ProratedTaxEnabled bool
	LeaveCostMode      LeaveCostMode

	BusinessDaysPerMonth int
	WeeklyRestDay        time.Weekday
}

// DefaultParameters is used when no parameters row exists: no allowances,
// 9% social security, no overtime, flat tax, full leave cost.
func DefaultParameters() Parameters {
	return Parameters{
		HardshipRate:         decimal.Zero,
		PermanenceRate:       decimal.Zero,
		SeniorityRatePerYear: decimal.Zero,
		EncouragementRate:    decimal.Zero,
		DriverDailyAmount:    decimal.Zero,
		NightSecurityAmount:  decimal.Zero,
		MealDailyAmount:      decimal.Zero,
		TransportDailyAmount: decimal.Zero,
		SpouseAtHomeAmount:   decimal.Zero,
		SocialSecurityRate:   decimal.NewFromInt(9),
		LeaveCostMode:        LeaveFull,
		BusinessDaysPerMonth: 30,
		WeeklyRestDay:        generic.DefaultRestDay,
	}
}

func (p Parameters) Validate() error {
	rates := map[string]decimal.Decimal{
		"hardship_rate":           p.HardshipRate,
		"permanence_rate":         p.PermanenceRate,
		"seniority_rate_per_year": p.SeniorityRatePerYear,
		"encouragement_rate":      p.EncouragementRate,
		"social_security_rate":    p.SocialSecurityRate,
	}
	for field, rate := range rates {
		if rate.IsNegative() || rate.GreaterThan(generic.Hundred) {
			return generic.NewValidation(field, "must be within 0-100, got %s", rate)
		}
	}
	amounts := map[string]decimal.Decimal{
		"driver_daily_amount":    p.DriverDailyAmount,
		"night_security_amount":  p.NightSecurityAmount,
		"meal_daily_amount":      p.MealDailyAmount,
		"transport_daily_amount": p.TransportDailyAmount,
		"spouse_at_home_amount":  p.SpouseAtHomeAmount,
	}
	for field, amount := range amounts {
		if amount.IsNegative() {
			return generic.NewValidation(field, "must not be negative")
		}
	}
	if p.EncouragementMinYears < 0 {
		return generic.NewValidation("encouragement_min_years", "must not be negative")
	}
	if !p.LeaveCostMode.Valid() {
		return generic.NewValidation("leave_cost_mode", "unknown mode %q", p.LeaveCostMode)
	}
	if p.BusinessDaysPerMonth <= 0 || p.BusinessDaysPerMonth > 31 {
		return generic.NewValidation("business_days_per_month", "must be within 1-31, got %d", p.BusinessDaysPerMonth)
	}
	if p.WeeklyRestDay < time.Sunday || p.WeeklyRestDay > time.Saturday {
		return generic.NewValidation("weekly_rest_day", "invalid weekday %d", p.WeeklyRestDay)
	}
	return nil
}

type ParametersStore interface {
	// GetParameters returns nil, nil when no row exists.
	GetParameters(ctx context.Context) (*Parameters, error)
	SaveParameters(ctx context.Context, p Parameters) error
}
