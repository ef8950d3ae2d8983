package places

import (
	"errors"
	"reflect"
	"testing"

	"github.com/bitebook/backend/internal/domain"
)

func TestMapToProviderDetails(t *testing.T) {
	p := samplePlace()
	p.RegularOpeningHours.Periods = append(p.RegularOpeningHours.Periods,
		periodResponse{Close: &pointResponse{Day: 2, Hour: 3}}, // no open point
		periodResponse{Open: &pointResponse{Day: 0, Hour: 0}},
	)

	got := MapToProviderDetails(&p)

	if got.ProviderID != "ChIJ-sample" {
		t.Errorf("ProviderID = %q, want ChIJ-sample", got.ProviderID)
	}
	if got.Name != "Chat Thai" {
		t.Errorf("Name = %q, want Chat Thai", got.Name)
	}
	if got.Phone != "(02) 9211 1808" {
		t.Errorf("Phone = %q", got.Phone)
	}
	if got.Schedule == nil || len(got.Schedule.Periods) != 2 {
		t.Fatalf("Schedule periods = %+v, want 2 (period without open skipped)", got.Schedule)
	}
	if got.Schedule.Periods[1].Close != nil {
		t.Errorf("second period Close = %+v, want nil", got.Schedule.Periods[1].Close)
	}
}

func TestMapToProviderDetails_NoDisplayNameOrHours(t *testing.T) {
	got := MapToProviderDetails(&placeResponse{ID: "x"})

	if got.Name != "" {
		t.Errorf("Name = %q, want empty", got.Name)
	}
	if got.Schedule != nil {
		t.Errorf("Schedule = %+v, want nil", got.Schedule)
	}
}

func TestNormalizeOpeningHours(t *testing.T) {
	tests := []struct {
		name     string
		schedule *domain.WeeklySchedule
		want     map[string][]domain.OpeningPeriod
	}{
		{
			name:     "nil schedule",
			schedule: nil,
			want:     nil,
		},
		{
			name:     "empty schedule",
			schedule: &domain.WeeklySchedule{},
			want:     map[string][]domain.OpeningPeriod{},
		},
		{
			name: "single period",
			schedule: &domain.WeeklySchedule{Periods: []domain.SchedulePeriod{
				{Open: domain.ScheduleTime{Day: 1, Hour: 11, Minute: 30}, Close: &domain.ScheduleTime{Day: 1, Hour: 22, Minute: 15}},
			}},
			want: map[string][]domain.OpeningPeriod{
				"Monday": {{OpenHour: 11, OpenMinute: 30, CloseHour: 22, CloseMinute: 15}},
			},
		},
		{
			name: "split shift keeps input order",
			schedule: &domain.WeeklySchedule{Periods: []domain.SchedulePeriod{
				{Open: domain.ScheduleTime{Day: 5, Hour: 17}, Close: &domain.ScheduleTime{Day: 5, Hour: 22}},
				{Open: domain.ScheduleTime{Day: 5, Hour: 12}, Close: &domain.ScheduleTime{Day: 5, Hour: 15}},
				{Open: domain.ScheduleTime{Day: 6, Hour: 12}, Close: &domain.ScheduleTime{Day: 6, Hour: 23}},
			}},
			want: map[string][]domain.OpeningPeriod{
				"Friday": {
					{OpenHour: 17, CloseHour: 22},
					{OpenHour: 12, CloseHour: 15},
				},
				"Saturday": {{OpenHour: 12, CloseHour: 23}},
			},
		},
		{
			name: "missing close time is kept with zero close",
			schedule: &domain.WeeklySchedule{Periods: []domain.SchedulePeriod{
				{Open: domain.ScheduleTime{Day: 0, Hour: 0, Minute: 0}},
			}},
			want: map[string][]domain.OpeningPeriod{
				"Sunday": {{OpenHour: 0, OpenMinute: 0, CloseHour: 0, CloseMinute: 0}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeOpeningHours(tt.schedule)
			if err != nil {
				t.Fatalf("NormalizeOpeningHours() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeOpeningHours() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizeOpeningHours_Idempotent(t *testing.T) {
	schedule := &domain.WeeklySchedule{Periods: []domain.SchedulePeriod{
		{Open: domain.ScheduleTime{Day: 2, Hour: 8}, Close: &domain.ScheduleTime{Day: 2, Hour: 14}},
		{Open: domain.ScheduleTime{Day: 2, Hour: 17}},
		{Open: domain.ScheduleTime{Day: 4, Hour: 9, Minute: 45}, Close: &domain.ScheduleTime{Day: 4, Hour: 21}},
	}}

	first, err := NormalizeOpeningHours(schedule)
	if err != nil {
		t.Fatalf("first run error = %v", err)
	}
	second, err := NormalizeOpeningHours(schedule)
	if err != nil {
		t.Fatalf("second run error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
	if _, ok := first["Monday"]; ok {
		t.Error("weekdays without periods must not have a key")
	}
}

func TestNormalizeOpeningHours_MalformedDay(t *testing.T) {
	for _, day := range []int{-1, 7, 42} {
		schedule := &domain.WeeklySchedule{Periods: []domain.SchedulePeriod{
			{Open: domain.ScheduleTime{Day: 1, Hour: 9}},
			{Open: domain.ScheduleTime{Day: day, Hour: 9}},
		}}

		got, err := NormalizeOpeningHours(schedule)
		if !errors.Is(err, domain.ErrMalformedSchedule) {
			t.Errorf("day %d: error = %v, want ErrMalformedSchedule", day, err)
		}
		if got != nil {
			t.Errorf("day %d: result = %+v, want nil", day, got)
		}
	}
}
