package readiness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pulsecoach/endurance-app/internal/domain"
)

func TestIsLocked(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.Local)
	day := func(offset int) time.Time {
		return now.AddDate(0, 0, offset)
	}

	tests := []struct {
		name    string
		setting domain.RigiditySetting
		date    time.Time
		locked  bool
	}{
		{"locked today protects today", domain.RigidityLockedToday, day(0), true},
		{"locked today leaves tomorrow open", domain.RigidityLockedToday, day(1), false},
		{"one day window covers tomorrow", domain.RigidityLocked1Day, day(1), true},
		{"one day window stops at two days out", domain.RigidityLocked1Day, day(2), false},
		{"two day window covers tomorrow", domain.RigidityLocked2Days, day(1), true},
		{"two day window covers two days out", domain.RigidityLocked2Days, day(2), true},
		{"two day window stops at three days out", domain.RigidityLocked2Days, day(3), false},
		{"three day window covers three days out", domain.RigidityLocked3Days, day(3), true},
		{"flexible never locks", domain.RigidityFlexible, day(0), false},
		{"flexible never locks ahead either", domain.RigidityFlexible, day(3), false},
		{"past sessions always count as locked", domain.RigidityLockedToday, day(-1), true},
		{"unknown setting behaves like locked today", domain.RigiditySetting("bogus"), day(0), true},
		{"unknown setting leaves tomorrow open", domain.RigiditySetting("bogus"), day(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.locked, IsLocked(tt.date, tt.setting, now))
		})
	}
}

func TestIsLockedUsesCalendarDaysNotHours(t *testing.T) {
	// 23:00 tonight vs 01:00 tomorrow is still a one-day offset even though
	// less than 24 hours apart.
	now := time.Date(2026, 3, 10, 23, 0, 0, 0, time.Local)
	tomorrowEarly := time.Date(2026, 3, 11, 1, 0, 0, 0, time.Local)

	assert.False(t, IsLocked(tomorrowEarly, domain.RigidityLockedToday, now))
	assert.True(t, IsLocked(tomorrowEarly, domain.RigidityLocked1Day, now))
}
