package domain

// ScheduleTime is a point in the provider's weekly schedule
type ScheduleTime struct {
	Day    int `json:"day"` // 0 = Sunday
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// SchedulePeriod is a raw provider opening interval. Close is nil for
// periods the provider reports without an end (e.g. open 24 hours).
type SchedulePeriod struct {
	Open  ScheduleTime  `json:"open"`
	Close *ScheduleTime `json:"close,omitempty"`
}

// WeeklySchedule is the provider's raw regular opening hours
type WeeklySchedule struct {
	OpenNow bool             `json:"openNow"`
	Periods []SchedulePeriod `json:"periods"`
}

// ProviderDetails is the provider's view of a place, valid for one enrichment call
type ProviderDetails struct {
	ProviderID       string          `json:"providerId"`
	Name             string          `json:"name"`
	FormattedAddress string          `json:"formattedAddress"`
	Phone            string          `json:"phone,omitempty"`
	Website          string          `json:"website,omitempty"`
	BusinessStatus   string          `json:"businessStatus,omitempty"`
	Schedule         *WeeklySchedule `json:"schedule,omitempty"`
	Types            []string        `json:"types,omitempty"`
}

// Clone returns a deep copy of the details
func (d *ProviderDetails) Clone() *ProviderDetails {
	if d == nil {
		return nil
	}
	c := *d
	c.Types = append([]string(nil), d.Types...)
	if d.Schedule != nil {
		s := *d.Schedule
		s.Periods = make([]SchedulePeriod, len(d.Schedule.Periods))
		for i, p := range d.Schedule.Periods {
			s.Periods[i] = SchedulePeriod{Open: p.Open, Close: clonePtr(p.Close)}
		}
		c.Schedule = &s
	}
	return &c
}
