package market

// TimeOfDay is the fixed session bucket a snapshot falls into
type TimeOfDay string

const (
	WindowOpeningDrive TimeOfDay = "opening_drive"
	WindowMidMorning   TimeOfDay = "mid_morning"
	WindowLunchChop    TimeOfDay = "lunch_chop"
	WindowAfternoon    TimeOfDay = "afternoon"
	WindowPowerHour    TimeOfDay = "power_hour"
	WindowAfterHours   TimeOfDay = "after_hours"
	WindowWeekend      TimeOfDay = "weekend"
)

// Window buckets the snapshot into its time-of-day window. Weekend takes
// precedence over everything, then the regular-hours flag, then the
// minutes-since-open / minutes-to-close boundaries.
func (s *FeatureSnapshot) Window() TimeOfDay {
	if s.Weekend() {
		return WindowWeekend
	}
	if !s.RegularHours {
		return WindowAfterHours
	}
	if s.MinutesToClose <= 60 {
		return WindowPowerHour
	}
	switch {
	case s.MinutesSinceOpen <= 30:
		return WindowOpeningDrive
	case s.MinutesSinceOpen <= 150:
		return WindowMidMorning
	case s.MinutesSinceOpen <= 270:
		return WindowLunchChop
	default:
		return WindowAfternoon
	}
}
