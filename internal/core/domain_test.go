package core

import "testing"

func TestDaysInMonth(t *testing.T) {
	cases := []struct {
		year, month, want int
	}{
		{2024, 0, 31},
		{2024, 1, 29}, // leap year
		{2025, 1, 28},
		{2025, 3, 30},
		{2025, 11, 31},
	}
	for _, tc := range cases {
		if got := DaysInMonth(tc.year, tc.month); got != tc.want {
			t.Errorf("DaysInMonth(%d, %d) = %d, want %d", tc.year, tc.month, got, tc.want)
		}
	}
}

func TestIsWeekend(t *testing.T) {
	// June 2024: the 1st is a Saturday.
	cases := []struct {
		day  int
		want bool
	}{
		{1, true},
		{2, true},
		{3, false},
		{7, false},
		{8, true},
	}
	for _, tc := range cases {
		if got := IsWeekend(2024, 5, tc.day); got != tc.want {
			t.Errorf("IsWeekend(2024, 5, %d) = %v, want %v", tc.day, got, tc.want)
		}
	}
}

func TestValidBonus(t *testing.T) {
	cases := []struct {
		name    string
		rate    float64
		weekend bool
		want    bool
	}{
		{"no bonus weekday", 0, false, true},
		{"thirty percent weekday", 0.3, false, true},
		{"fifty percent weekend", 0.5, true, true},
		{"weekend rate on weekend", 2.0, true, true},
		{"weekend rate on weekday", 2.0, false, false},
		{"unknown rate", 0.75, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidBonus(tc.rate, tc.weekend); got != tc.want {
				t.Fatalf("ValidBonus(%v, %v) = %v, want %v", tc.rate, tc.weekend, got, tc.want)
			}
		})
	}
}

func TestDefaultBonus(t *testing.T) {
	if DefaultBonus(true) != WeekendBonus {
		t.Error("weekend default should be the weekend rate")
	}
	if DefaultBonus(false) != 0 {
		t.Error("weekday default should be zero")
	}
}

func TestValidateDay(t *testing.T) {
	if err := ValidateDay(2024, 1, 29); err != nil {
		t.Errorf("Feb 29 2024 should be valid: %v", err)
	}
	if err := ValidateDay(2025, 1, 29); err != ErrInvalidDay {
		t.Errorf("Feb 29 2025 should be invalid, got %v", err)
	}
	if err := ValidateDay(2025, 12, 1); err != ErrInvalidMonth {
		t.Errorf("month 12 should be invalid, got %v", err)
	}
	if err := ValidateDay(2025, 0, 0); err != ErrInvalidDay {
		t.Errorf("day 0 should be invalid, got %v", err)
	}
}

func TestCloneMonthIsIndependent(t *testing.T) {
	orig := MonthEntries{3: {{Hours: 8, Bonus: 0.3}}}
	clone := CloneMonth(orig)
	clone[3][0].Hours = 1
	clone[4] = []WorkEntry{{Hours: 2}}
	if orig[3][0].Hours != 8 {
		t.Error("mutating the clone changed the original entry")
	}
	if _, ok := orig[4]; ok {
		t.Error("mutating the clone added a day to the original")
	}
}
