// AngelaMos | 2026
// entity_test.go

package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ksdeva/predictor-admin/internal/config"
)

var testLifecycle = config.LifecycleConfig{
	Warning1Days:      14,
	Warning2Days:      30,
	Warning3Days:      60,
	CriticalDays:      90,
	AccuracyThreshold: 0.70,
}

func daysAgo(now time.Time, days int) *time.Time {
	t := now.AddDate(0, 0, -days)
	return &t
}

func TestActivityStatusThresholds(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		days int
		want ActivityStatus
	}{
		{"fresh", 0, StatusActive},
		{"below first threshold", 14, StatusActive},
		{"just past first threshold", 15, StatusWarning1},
		{"at second boundary", 30, StatusWarning1},
		{"second tier", 31, StatusWarning2},
		{"third tier", 61, StatusWarning3},
		{"at critical boundary", 90, StatusWarning3},
		{"critical", 91, StatusCritical},
		{"long gone", 95, StatusCritical},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := &Account{
				CreatedAt:      now.AddDate(-1, 0, 0),
				LastActivityAt: daysAgo(now, tc.days),
			}
			assert.Equal(t, tc.want, a.ActivityStatus(now, testLifecycle))
		})
	}
}

func TestActivityStatusFallsBackToCreation(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a := &Account{
		CreatedAt:      now.AddDate(0, 0, -95),
		LastActivityAt: nil,
	}

	assert.Equal(t, StatusCritical, a.ActivityStatus(now, testLifecycle))
	assert.Equal(t, 95, a.DaysInactive(now))
}

func TestDaysInactiveClampsFutureTimestamps(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	future := now.Add(2 * time.Hour)
	a := &Account{
		CreatedAt:      now.AddDate(0, 0, -10),
		LastActivityAt: &future,
	}

	assert.Equal(t, 0, a.DaysInactive(now))
	assert.Equal(t, StatusActive, a.ActivityStatus(now, testLifecycle))
}

func TestSeverityOrdering(t *testing.T) {
	ordered := []ActivityStatus{
		StatusActive,
		StatusWarning1,
		StatusWarning2,
		StatusWarning3,
		StatusCritical,
	}

	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Severity(), ordered[i-1].Severity())
	}

	assert.False(t, StatusActive.IsWarning())
	assert.True(t, StatusWarning1.IsWarning())
	assert.True(t, StatusCritical.IsWarning())
}

func TestLowAccuracy(t *testing.T) {
	assert.True(t, (&Account{ModelAccuracy: 0.55}).LowAccuracy(0.70))
	assert.False(t, (&Account{ModelAccuracy: 0.70}).LowAccuracy(0.70))
	assert.False(t, (&Account{ModelAccuracy: 0.92}).LowAccuracy(0.70))

	// unset accuracy is not "low", it is unknown
	assert.False(t, (&Account{ModelAccuracy: 0}).LowAccuracy(0.70))
}
