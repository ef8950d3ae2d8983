package places

import (
	"fmt"

	"github.com/bitebook/backend/internal/domain"
)

// MapToProviderDetails converts a Places API place to our domain ProviderDetails
func MapToProviderDetails(p *placeResponse) domain.ProviderDetails {
	details := domain.ProviderDetails{
		ProviderID:       p.ID,
		FormattedAddress: p.FormattedAddress,
		Phone:            p.NationalPhoneNumber,
		Website:          p.WebsiteURI,
		BusinessStatus:   p.BusinessStatus,
		Types:            p.Types,
	}
	if p.DisplayName != nil {
		details.Name = p.DisplayName.Text
	}
	if p.RegularOpeningHours != nil {
		details.Schedule = mapSchedule(p.RegularOpeningHours)
	}
	return details
}

// mapSchedule keeps the provider's period order. Periods without an open
// point carry no usable information and are skipped.
func mapSchedule(hours *openingHoursResponse) *domain.WeeklySchedule {
	schedule := &domain.WeeklySchedule{OpenNow: hours.OpenNow}
	for _, period := range hours.Periods {
		if period.Open == nil {
			continue
		}
		sp := domain.SchedulePeriod{
			Open: domain.ScheduleTime{Day: period.Open.Day, Hour: period.Open.Hour, Minute: period.Open.Minute},
		}
		if period.Close != nil {
			sp.Close = &domain.ScheduleTime{Day: period.Close.Day, Hour: period.Close.Hour, Minute: period.Close.Minute}
		}
		schedule.Periods = append(schedule.Periods, sp)
	}
	return schedule
}

// NormalizeOpeningHours converts a raw weekly schedule into periods keyed by
// weekday name. Periods are appended in input order, a missing close time
// leaves the close fields at zero, and weekdays without periods have no key.
// A nil schedule yields a nil map.
func NormalizeOpeningHours(schedule *domain.WeeklySchedule) (map[string][]domain.OpeningPeriod, error) {
	if schedule == nil {
		return nil, nil
	}

	hours := make(map[string][]domain.OpeningPeriod)
	for i, period := range schedule.Periods {
		day := period.Open.Day
		if day < 0 || day >= len(domain.Weekdays) {
			return nil, fmt.Errorf("%w: period %d has day %d", domain.ErrMalformedSchedule, i, day)
		}

		op := domain.OpeningPeriod{
			OpenHour:   period.Open.Hour,
			OpenMinute: period.Open.Minute,
		}
		if period.Close != nil {
			op.CloseHour = period.Close.Hour
			op.CloseMinute = period.Close.Minute
		}

		name := domain.Weekdays[day]
		hours[name] = append(hours[name], op)
	}
	return hours, nil
}
