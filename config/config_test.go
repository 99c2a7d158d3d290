package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/config"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir()) // no .env
	for _, key := range []string{"APP_PORT", "DB_PATH", "LOG_LEVEL", "PAYROLL_CONCURRENCY", "CORS_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "payroll.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, 4, cfg.Payroll.Concurrency)
	assert.NotEmpty(t, cfg.App.CORSOrigins)
}

func TestLoad_EnvironmentAndDotEnv(t *testing.T) {
	// GIVEN: a .env file and an environment variable
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DB_PATH=from-dotenv.db\n"), 0o600))
	t.Setenv("APP_PORT", "9090")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PAYROLL_CONCURRENCY", "8")
	t.Cleanup(func() { os.Unsetenv("DB_PATH") })

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "from-dotenv.db", cfg.Database.Path)
	assert.Equal(t, 8, cfg.Payroll.Concurrency)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.App.CORSOrigins)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("APP_PORT", "not-a-port")
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("APP_PORT", "8080")
	t.Setenv("PAYROLL_CONCURRENCY", "0")
	_, err = config.Load()
	assert.Error(t, err)

	t.Setenv("PAYROLL_CONCURRENCY", "2")
	t.Setenv("LOG_LEVEL", "chatty")
	_, err = config.Load()
	assert.Error(t, err)
}

// =============================================================================
// PARAMETERS FILE
// =============================================================================

func TestParseParameters_OverlaysDefaults(t *testing.T) {
	seed := []byte(`
hardship_rate: "5"
meal_daily_amount: 50.5
overtime_enabled: true
leave_cost_mode: Hybrid
business_days_per_month: 26
weekly_rest_day: friday
`)
	p, err := config.ParseParameters(seed)

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("5").Equal(p.HardshipRate))
	assert.True(t, decimal.RequireFromString("50.5").Equal(p.MealDailyAmount))
	assert.True(t, p.OvertimeEnabled)
	assert.Equal(t, payroll.LeaveHybrid, p.LeaveCostMode)
	assert.Equal(t, 26, p.BusinessDaysPerMonth)
	assert.Equal(t, time.Friday, p.WeeklyRestDay)

	// untouched keys keep their defaults
	assert.True(t, decimal.NewFromInt(9).Equal(p.SocialSecurityRate))
	assert.False(t, p.ProratedTaxEnabled)
}

func TestParseParameters_Errors(t *testing.T) {
	_, err := config.ParseParameters([]byte(`meal_daily_amount: lots`))
	assert.Error(t, err)

	_, err = config.ParseParameters([]byte(`weekly_rest_day: someday`))
	assert.Error(t, err)

	_, err = config.ParseParameters([]byte(`social_security_rate: "150"`))
	assert.ErrorIs(t, err, generic.ErrValidation)

	_, err = config.ParseParameters([]byte(`leave_cost_mode: weekly`))
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestLoadParametersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parameters.yaml")
	require.NoError(t, os.WriteFile(path, []byte("social_security_rate: \"10\"\n"), 0o600))

	p, err := config.LoadParametersFile(path)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(p.SocialSecurityRate))

	_, err = config.LoadParametersFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
