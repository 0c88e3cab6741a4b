package readiness

import (
	"time"

	"pulsecoach/endurance-app/internal/domain"
)

// lockWindowDays returns how many days ahead a setting protects, or -1 when
// the setting never locks.
func lockWindowDays(setting domain.RigiditySetting) int {
	switch setting {
	case domain.RigidityLockedToday:
		return 0
	case domain.RigidityLocked1Day:
		return 1
	case domain.RigidityLocked2Days:
		return 2
	case domain.RigidityLocked3Days:
		return 3
	case domain.RigidityFlexible:
		return -1
	default:
		// Unknown settings behave like the most conservative default.
		return 0
	}
}

// IsLocked reports whether a workout on workoutDate is currently protected
// against direct edits under the given rigidity setting. The comparison is at
// local calendar-day granularity relative to now: a session is locked when
// its day offset from today is at most the setting's window. FLEXIBLE_WEEK
// never locks.
func IsLocked(workoutDate time.Time, setting domain.RigiditySetting, now time.Time) bool {
	window := lockWindowDays(setting)
	if window < 0 {
		return false
	}
	return dayOffset(now, workoutDate) <= window
}

// dayOffset computes the whole-day offset between two instants in the local
// calendar (to - from, in days).
func dayOffset(from, to time.Time) int {
	fy, fm, fd := from.Local().Date()
	ty, tm, td := to.Local().Date()
	f := time.Date(fy, fm, fd, 0, 0, 0, 0, time.Local)
	t := time.Date(ty, tm, td, 0, 0, 0, 0, time.Local)
	return int(t.Sub(f).Hours() / 24)
}
