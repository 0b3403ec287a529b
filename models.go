package main

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/SimplePineApple/BalanceTrackerBot/internal/tracker"
)

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format("2006-01-02") + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"2006-01-02"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ScanDate implements pgtype.DateScanner so pgx can scan PostgreSQL date
// columns into DateOnly. NULL zeroes the time.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = v.Time
	return nil
}

/* ─── Domain structs ─────────────────────────────────────────────────── */

// user maps to the users table. TelegramUserID links a dashboard login to
// the bot user it acts as; nil until linked.
type user struct {
	ID             int        `json:"id" db:"id"`
	Username       string     `json:"username" db:"username"`
	Email          string     `json:"email" db:"email"`
	AuthToken      string     `json:"-" db:"auth_token"`
	Password       string     `json:"-" db:"password"`
	TelegramUserID *int64     `json:"telegram_user_id" db:"telegram_user_id"`
	CreatedAt      *time.Time `json:"created_at" db:"created_at"`
}

// journalEntry maps to journal_entries. Label is empty for water and reset.
type journalEntry struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	Kind       string    `json:"kind" db:"kind"`
	Label      string    `json:"label" db:"label"`
	Amount     int       `json:"amount" db:"amount"`
	ValueAfter int       `json:"value_after" db:"value_after"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// weekDayDBRow is the shape of each row returned by the week-summary GROUP BY query.
type weekDayDBRow struct {
	Date       DateOnly `db:"date"`
	WaterML    int      `db:"water_ml"`
	FoodKcal   int      `db:"food_kcal"`
	BurnedKcal int      `db:"burned_kcal"`
}

// weekDaySummary is one day in the GET /journal/week-summary response.
// Days with nothing journaled have HasData=false and zero totals.
type weekDaySummary struct {
	Date            DateOnly `json:"date"`
	WaterML         int      `json:"water_ml"`
	FoodKcal        int      `json:"food_kcal"`
	BurnedKcal      int      `json:"burned_kcal"`
	NetKcal         int      `json:"net_kcal"`
	CalorieGoalKcal int      `json:"calorie_goal_kcal"`
	HasData         bool     `json:"has_data"`
}

// dailyJournal is the response shape for GET /journal/daily. Totals add up
// every entry of the day, including those logged before a /reset_day.
type dailyJournal struct {
	Date       string         `json:"date"`
	WaterML    int            `json:"water_ml"`
	FoodKcal   int            `json:"food_kcal"`
	BurnedKcal int            `json:"burned_kcal"`
	NetKcal    int            `json:"net_kcal"`
	Resets     int            `json:"resets"`
	Entries    []journalEntry `json:"entries"`
}

// progressResponse is the live view of the in-memory ledger.
type progressResponse struct {
	WaterML          int      `json:"water_ml"`
	WaterGoalML      int      `json:"water_goal_ml"`
	WaterRemainingML int      `json:"water_remaining_ml"`
	EatenKcal        int      `json:"eaten_kcal"`
	BurnedKcal       int      `json:"burned_kcal"`
	BalanceKcal      int      `json:"balance_kcal"`
	CalorieGoalKcal  int      `json:"calorie_goal_kcal"`
	RemainingKcal    int      `json:"remaining_kcal"`
	City             string   `json:"city"`
	TemperatureC     *float64 `json:"temperature_c"`
	Tips             []string `json:"tips"`
}

func newProgressResponse(l *tracker.DailyLedger) progressResponse {
	s := tracker.Summarize(l)
	return progressResponse{
		WaterML:          s.WaterML,
		WaterGoalML:      s.WaterGoalML,
		WaterRemainingML: s.WaterRemainingML,
		EatenKcal:        s.EatenKcal,
		BurnedKcal:       s.BurnedKcal,
		BalanceKcal:      s.BalanceKcal,
		CalorieGoalKcal:  s.CalorieGoalKcal,
		RemainingKcal:    s.RemainingKcal,
		City:             l.Profile.City,
		TemperatureC:     l.Profile.TemperatureC,
		Tips:             tracker.Recommend(l),
	}
}

// messageRequest is the request body for POST /api/messages.
type messageRequest struct {
	Text string `json:"text"`
}
