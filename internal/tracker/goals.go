package tracker

import "strings"

// workoutKcalPerMin maps a workout kind to its burn rate. Keys are lowercase;
// lookups lowercase the input first. Unknown kinds use defaultKcalPerMin.
var workoutKcalPerMin = map[string]int{
	"бег":      10, // 30 min -> ~300 kcal
	"ходьба":   4,
	"зал":      8,
	"вело":     7,
	"плавание": 9,

	"run":     10,
	"walk":    4,
	"gym":     8,
	"bike":    7,
	"cycling": 7,
	"swim":    9,
}

const defaultKcalPerMin = 7

// WaterGoal returns the daily water target in ml: 30 ml per kg of body weight,
// +500 ml for every complete 30 minutes of daily activity, and +500 ml when the
// temperature is known and above 25°C. A nil temperature means "unknown" and
// adds nothing.
func WaterGoal(weightKG float64, activityMin int, tempC *float64) int {
	base := weightKG * 30
	extraActivity := 500 * (activityMin / 30)

	extraHeat := 0
	if tempC != nil && *tempC > 25 {
		extraHeat = 500
	}

	return int(base + float64(extraActivity) + float64(extraHeat))
}

// CalorieGoal returns the daily calorie target. A manual override wins
// unchanged. Otherwise the base is the sex-neutral Mifflin-St Jeor term
// (10w + 6.25h - 5a) plus an activity bonus: +400 at 60+ min, +200 at 30+ min.
func CalorieGoal(weightKG float64, heightCM, age, activityMin int, manual *int) int {
	if manual != nil {
		return *manual
	}

	base := 10*weightKG + 6.25*float64(heightCM) - 5*float64(age)

	extra := 0.0
	switch {
	case activityMin >= 60:
		extra = 400
	case activityMin >= 30:
		extra = 200
	}

	return int(base + extra)
}

// WorkoutBurn estimates calories burned by a workout.
func WorkoutBurn(kind string, minutes int) int {
	rate, ok := workoutKcalPerMin[strings.ToLower(strings.TrimSpace(kind))]
	if !ok {
		rate = defaultKcalPerMin
	}
	return rate * minutes
}

// WorkoutWaterBonus is the extra water (ml) a workout adds to the daily goal:
// 200 ml per complete 30 minutes.
func WorkoutWaterBonus(minutes int) int {
	return 200 * (minutes / 30)
}
