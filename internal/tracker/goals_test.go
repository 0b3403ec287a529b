package tracker

import "testing"

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

/* ─── WaterGoal ──────────────────────────────────────────────────────── */

// TestWaterGoal_HotWeather checks the closed form for temperatures above 25°C:
// int(w*30) + 500*(a/30) + 500.
func TestWaterGoal_HotWeather(t *testing.T) {
	cases := []struct {
		weight   float64
		activity int
		temp     float64
	}{
		{70, 40, 30},
		{0.5, 0, 26},
		{400, 1000, 45},
		{82.5, 59, 25.1},
		{55, 90, 31},
	}
	for _, tc := range cases {
		want := int(tc.weight*30) + 500*(tc.activity/30) + 500
		got := WaterGoal(tc.weight, tc.activity, floatPtr(tc.temp))
		if got != want {
			t.Errorf("WaterGoal(%v, %d, %v) = %d, want %d", tc.weight, tc.activity, tc.temp, got, want)
		}
	}
}

func TestWaterGoal_UnknownOrMildTemperature(t *testing.T) {
	if got := WaterGoal(70, 40, nil); got != 2600 {
		t.Errorf("unknown temperature: expected 2600, got %d", got)
	}
	// Exactly 25°C is not "hot".
	if got := WaterGoal(70, 40, floatPtr(25)); got != 2600 {
		t.Errorf("25°C: expected 2600, got %d", got)
	}
}

func TestWaterGoal_ActivityBlocksAreFloored(t *testing.T) {
	if got := WaterGoal(60, 29, nil); got != 1800 {
		t.Errorf("29 min: expected 1800, got %d", got)
	}
	if got := WaterGoal(60, 60, nil); got != 2800 {
		t.Errorf("60 min: expected 2800, got %d", got)
	}
}

/* ─── CalorieGoal ────────────────────────────────────────────────────── */

func TestCalorieGoal_ActivityTiers(t *testing.T) {
	cases := []struct {
		name     string
		activity int
		want     int
	}{
		// base = 700 + 1093.75 - 110 = 1683.75
		{"none", 0, 1683},
		{"under 30", 29, 1683},
		{"30 exactly", 30, 1883},
		{"40", 40, 1883},
		{"60 exactly", 60, 2083},
		{"lots", 300, 2083},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CalorieGoal(70, 175, 22, tc.activity, nil); got != tc.want {
				t.Errorf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

// TestCalorieGoal_ManualOverride verifies the override is returned as-is
// regardless of the metrics.
func TestCalorieGoal_ManualOverride(t *testing.T) {
	for _, w := range []float64{1, 70, 400} {
		if got := CalorieGoal(w, 50, 120, 1000, intPtr(2500)); got != 2500 {
			t.Errorf("weight %v: expected override 2500, got %d", w, got)
		}
	}
}

/* ─── Workouts ───────────────────────────────────────────────────────── */

func TestWorkoutBurn(t *testing.T) {
	cases := []struct {
		kind    string
		minutes int
		want    int
	}{
		{"бег", 30, 300},
		{"БЕГ", 30, 300},
		{"ходьба", 60, 240},
		{"зал", 45, 360},
		{"вело", 20, 140},
		{"плавание", 10, 90},
		{"Run", 10, 100},
		{"йога", 30, 210}, // unknown kind falls back to 7 kcal/min
	}
	for _, tc := range cases {
		if got := WorkoutBurn(tc.kind, tc.minutes); got != tc.want {
			t.Errorf("WorkoutBurn(%q, %d) = %d, want %d", tc.kind, tc.minutes, got, tc.want)
		}
	}
}

func TestWorkoutWaterBonus(t *testing.T) {
	cases := map[int]int{1: 0, 29: 0, 30: 200, 59: 200, 60: 400, 1000: 6600}
	for minutes, want := range cases {
		if got := WorkoutWaterBonus(minutes); got != want {
			t.Errorf("WorkoutWaterBonus(%d) = %d, want %d", minutes, got, want)
		}
	}
}
