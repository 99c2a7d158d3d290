package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
	"gopkg.in/yaml.v3"
)

// ParametersFile is the YAML pay-parameters seed. Amounts are strings so
// they parse exactly; omitted keys keep payroll.DefaultParameters values.
//
//	social_security_rate: "9"
//	meal_daily_amount: "50"
//	leave_cost_mode: hybrid
//	weekly_rest_day: friday
type ParametersFile struct {
	HardshipRate          string `yaml:"hardship_rate"`
	PermanenceRate        string `yaml:"permanence_rate"`
	SeniorityRatePerYear  string `yaml:"seniority_rate_per_year"`
	EncouragementRate     string `yaml:"encouragement_rate"`
	EncouragementMinYears *int   `yaml:"encouragement_min_years"`

	DriverDailyAmount    string `yaml:"driver_daily_amount"`
	NightSecurityAmount  string `yaml:"night_security_amount"`
	MealDailyAmount      string `yaml:"meal_daily_amount"`
	TransportDailyAmount string `yaml:"transport_daily_amount"`
	SpouseAtHomeAmount   string `yaml:"spouse_at_home_amount"`

	SocialSecurityRate string `yaml:"social_security_rate"`

	OvertimeEnabled    *bool  `yaml:"overtime_enabled"`
	ProratedTaxEnabled *bool  `yaml:"prorated_tax_enabled"`
	LeaveCostMode      string `yaml:"leave_cost_mode"`

	BusinessDaysPerMonth *int   `yaml:"business_days_per_month"`
	WeeklyRestDay        string `yaml:"weekly_rest_day"`
}

// LoadParametersFile reads and validates a YAML seed.
func LoadParametersFile(path string) (payroll.Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return payroll.Parameters{}, fmt.Errorf("read parameters file: %w", err)
	}
	return ParseParameters(data)
}

func ParseParameters(data []byte) (payroll.Parameters, error) {
	var file ParametersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return payroll.Parameters{}, fmt.Errorf("parse parameters file: %w", err)
	}
	p, err := file.Parameters()
	if err != nil {
		return payroll.Parameters{}, err
	}
	return p, p.Validate()
}

// Parameters overlays the file on payroll.DefaultParameters.
func (f ParametersFile) Parameters() (payroll.Parameters, error) {
	p := payroll.DefaultParameters()

	amounts := []struct {
		key   string
		value string
		dst   *decimal.Decimal
	}{
		{"hardship_rate", f.HardshipRate, &p.HardshipRate},
		{"permanence_rate", f.PermanenceRate, &p.PermanenceRate},
		{"seniority_rate_per_year", f.SeniorityRatePerYear, &p.SeniorityRatePerYear},
		{"encouragement_rate", f.EncouragementRate, &p.EncouragementRate},
		{"driver_daily_amount", f.DriverDailyAmount, &p.DriverDailyAmount},
		{"night_security_amount", f.NightSecurityAmount, &p.NightSecurityAmount},
		{"meal_daily_amount", f.MealDailyAmount, &p.MealDailyAmount},
		{"transport_daily_amount", f.TransportDailyAmount, &p.TransportDailyAmount},
		{"spouse_at_home_amount", f.SpouseAtHomeAmount, &p.SpouseAtHomeAmount},
		{"social_security_rate", f.SocialSecurityRate, &p.SocialSecurityRate},
	}
	for _, a := range amounts {
		if a.value == "" {
			continue
		}
		v, err := decimal.NewFromString(strings.TrimSpace(a.value))
		if err != nil {
			return p, fmt.Errorf("parameters file %s: %w", a.key, err)
		}
		*a.dst = v
	}

	if f.EncouragementMinYears != nil {
		p.EncouragementMinYears = *f.EncouragementMinYears
	}
	if f.OvertimeEnabled != nil {
		p.OvertimeEnabled = *f.OvertimeEnabled
	}
	if f.ProratedTaxEnabled != nil {
		p.ProratedTaxEnabled = *f.ProratedTaxEnabled
	}
	if f.LeaveCostMode != "" {
		p.LeaveCostMode = payroll.LeaveCostMode(strings.ToLower(f.LeaveCostMode))
	}
	if f.BusinessDaysPerMonth != nil {
		p.BusinessDaysPerMonth = *f.BusinessDaysPerMonth
	}
	if f.WeeklyRestDay != "" {
		day, err := parseWeekday(f.WeeklyRestDay)
		if err != nil {
			return p, err
		}
		p.WeeklyRestDay = day
	}
	return p, nil
}

func parseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(s)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("parameters file weekly_rest_day: unknown weekday %q", s)
}
