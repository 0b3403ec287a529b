package tracker

import (
	"math"
	"time"
)

// UserProfile holds the body metrics collected during setup and the goals
// derived from them. WaterGoalML grows with every logged workout and is never
// rolled back by ResetDay.
type UserProfile struct {
	WeightKG        float64
	HeightCM        int
	Age             int
	ActivityMin     int
	City            string
	TemperatureC    *float64 // nil when the weather lookup failed
	WaterGoalML     int
	CalorieGoalKcal int
	ManualGoal      bool
}

// NewUserProfile derives goals from validated answers and a resolved
// temperature.
func NewUserProfile(a ProfileAnswers, tempC *float64) UserProfile {
	return UserProfile{
		WeightKG:        a.WeightKG,
		HeightCM:        a.HeightCM,
		Age:             a.Age,
		ActivityMin:     a.ActivityMin,
		City:            a.City,
		TemperatureC:    tempC,
		WaterGoalML:     WaterGoal(a.WeightKG, a.ActivityMin, tempC),
		CalorieGoalKcal: CalorieGoal(a.WeightKG, a.HeightCM, a.Age, a.ActivityMin, a.ManualCalories),
		ManualGoal:      a.ManualCalories != nil,
	}
}

// Point is one entry of a history series: the cumulative value at a moment.
type Point struct {
	At    time.Time
	Value int
}

// Series is an ordered history. It always starts with a zero point.
type Series []Point

func seed(at time.Time) Series {
	return Series{{At: at, Value: 0}}
}

// Last returns the most recent value, or 0 for an empty series.
func (s Series) Last() int {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Value
}

// FoodItem is a resolved product: a display name and its energy density.
type FoodItem struct {
	Name        string  `json:"name"`
	KcalPer100G float64 `json:"kcal_per_100g"`
}

// DailyLedger is a user's mutable day: the profile with its goals, the three
// cumulative counters and their histories. Every counter mutation appends
// exactly one point to the matching series.
type DailyLedger struct {
	Profile UserProfile

	WaterML    int
	FoodKcal   int
	BurnedKcal int

	Water  Series
	Food   Series
	Burned Series

	now func() time.Time
}

// NewDailyLedger creates a ledger with zeroed counters and each series seeded
// with a zero point at the current time.
func NewDailyLedger(p UserProfile, now func() time.Time) *DailyLedger {
	if now == nil {
		now = time.Now
	}
	l := &DailyLedger{Profile: p, now: now}
	l.ResetDay()
	return l
}

// WaterResult is returned by LogWater.
type WaterResult struct {
	Added     int
	Total     int
	Goal      int
	Remaining int
}

// LogWater adds ml (1..5000) to the day's water.
func (l *DailyLedger) LogWater(ml int) (WaterResult, error) {
	if ml <= 0 || ml > 5000 {
		return WaterResult{}, invalid("water", "Введи корректное число мл (например 250).")
	}

	l.WaterML += ml
	l.Water = append(l.Water, Point{At: l.now(), Value: l.WaterML})

	return WaterResult{
		Added:     ml,
		Total:     l.WaterML,
		Goal:      l.Profile.WaterGoalML,
		Remaining: max(l.Profile.WaterGoalML-l.WaterML, 0),
	}, nil
}

// FoodResult is returned by LogFood.
type FoodResult struct {
	Item  FoodItem
	Grams int
	Added int
	Total int
}

// LogFood adds grams (1..5000) of a resolved product. The calorie amount is
// rounded half away from zero.
func (l *DailyLedger) LogFood(item FoodItem, grams int) (FoodResult, error) {
	if grams <= 0 || grams > 5000 {
		return FoodResult{}, invalid("grams", "Введи граммы числом (например 120).")
	}

	added := int(math.Round(item.KcalPer100G * float64(grams) / 100))
	l.FoodKcal += added
	l.Food = append(l.Food, Point{At: l.now(), Value: l.FoodKcal})

	return FoodResult{Item: item, Grams: grams, Added: added, Total: l.FoodKcal}, nil
}

// WorkoutResult is returned by LogWorkout.
type WorkoutResult struct {
	Kind        string
	Minutes     int
	Burned      int
	WaterBonus  int
	WaterGoalML int
}

// LogWorkout records a workout of 1..1000 minutes. Besides the burn it
// permanently raises the water goal; that increase survives ResetDay.
func (l *DailyLedger) LogWorkout(kind string, minutes int) (WorkoutResult, error) {
	if minutes <= 0 || minutes > 1000 {
		return WorkoutResult{}, invalid("minutes", "Минуты должны быть числом (например 30).")
	}

	burned := WorkoutBurn(kind, minutes)
	bonus := WorkoutWaterBonus(minutes)

	l.BurnedKcal += burned
	l.Profile.WaterGoalML += bonus
	l.Burned = append(l.Burned, Point{At: l.now(), Value: l.BurnedKcal})

	return WorkoutResult{
		Kind:        kind,
		Minutes:     minutes,
		Burned:      burned,
		WaterBonus:  bonus,
		WaterGoalML: l.Profile.WaterGoalML,
	}, nil
}

// ResetDay clears the counters and reseeds all three series. Goals are kept.
func (l *DailyLedger) ResetDay() {
	at := l.now()
	l.WaterML = 0
	l.FoodKcal = 0
	l.BurnedKcal = 0
	l.Water = seed(at)
	l.Food = seed(at)
	l.Burned = seed(at)
}

// Snapshot returns a deep copy safe to read without holding the user's lock.
func (l *DailyLedger) Snapshot() DailyLedger {
	c := *l
	c.Water = append(Series(nil), l.Water...)
	c.Food = append(Series(nil), l.Food...)
	c.Burned = append(Series(nil), l.Burned...)
	if l.Profile.TemperatureC != nil {
		t := *l.Profile.TemperatureC
		c.Profile.TemperatureC = &t
	}
	return c
}
