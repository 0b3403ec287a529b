package tracker

import (
	"fmt"
	"strings"
)

// Summary is a read-only view of a ledger's day.
type Summary struct {
	WaterML          int
	WaterGoalML      int
	WaterRemainingML int
	EatenKcal        int
	BurnedKcal       int
	BalanceKcal      int // eaten - burned
	CalorieGoalKcal  int
	RemainingKcal    int // max(goal - balance, 0)
}

// Summarize computes the progress summary. It never mutates l.
func Summarize(l *DailyLedger) Summary {
	balance := l.FoodKcal - l.BurnedKcal
	return Summary{
		WaterML:          l.WaterML,
		WaterGoalML:      l.Profile.WaterGoalML,
		WaterRemainingML: max(l.Profile.WaterGoalML-l.WaterML, 0),
		EatenKcal:        l.FoodKcal,
		BurnedKcal:       l.BurnedKcal,
		BalanceKcal:      balance,
		CalorieGoalKcal:  l.Profile.CalorieGoalKcal,
		RemainingKcal:    max(l.Profile.CalorieGoalKcal-balance, 0),
	}
}

// lowCalFoods is shown in every recommendation; only the first five are used.
var lowCalFoods = []string{
	"огурцы", "помидоры", "салат/зелень", "брокколи", "цветная капуста",
	"куриная грудка", "яйца", "творог (если можно)", "греческий йогурт", "ягоды",
}

const activityIdeas = "🏃 Идеи активности: ходьба 20–30 мин, лёгкий бег 15–20 мин, вело 20 мин."

// Recommend builds rule-based tips from the ledger state. The output depends
// only on l, so equal ledgers always get equal tips.
func Recommend(l *DailyLedger) []string {
	s := Summarize(l)
	tips := make([]string, 0, 4)

	if s.WaterRemainingML > 0 {
		portion := min(s.WaterRemainingML, 250)
		tips = append(tips, fmt.Sprintf(
			"💧 До нормы воды осталось %d мл. Выпей сейчас %d мл и ещё раз через 30–60 минут.",
			s.WaterRemainingML, portion))
	} else {
		tips = append(tips, "💧 По воде ты уже в норме на сегодня ✅")
	}

	if s.BalanceKcal > s.CalorieGoalKcal {
		over := s.BalanceKcal - s.CalorieGoalKcal
		tips = append(tips, fmt.Sprintf(
			"🍽 Ты выше цели на ~%d ккал. Можно компенсировать прогулкой 30–40 минут или лёгкой тренировкой.", over))
	} else {
		left := s.CalorieGoalKcal - s.BalanceKcal
		if left > 300 {
			tips = append(tips, fmt.Sprintf("🍽 До цели осталось ~%d ккал. Лучше добрать чем-то лёгким и белковым.", left))
		} else {
			tips = append(tips, fmt.Sprintf("🍽 До цели осталось ~%d ккал — можно закрыть маленьким перекусом.", left))
		}
	}

	tips = append(tips, fmt.Sprintf("🥗 Идеи низкокалорийных продуктов: %s.", strings.Join(lowCalFoods[:5], ", ")))
	tips = append(tips, activityIdeas)
	return tips
}
