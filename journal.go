package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SimplePineApple/BalanceTrackerBot/internal/tracker"
)

/* ─── Journal store ──────────────────────────────────────────────────── */

// pgJournal appends ledger mutations to journal_entries. It is write-only
// from the bot's point of view; only the dashboard reads it back.
type pgJournal struct {
	db *pgxpool.Pool
}

func (j *pgJournal) Record(ctx context.Context, e tracker.Entry) error {
	_, err := j.db.Exec(ctx,
		`INSERT INTO journal_entries (user_id, kind, label, amount, value_after, created_at)
		 VALUES (@userID, @kind, @label, @amount, @valueAfter, @createdAt)`,
		pgx.NamedArgs{
			"userID":     e.UserID,
			"kind":       e.Kind,
			"label":      e.Label,
			"amount":     e.Amount,
			"valueAfter": e.ValueAfter,
			"createdAt":  e.At,
		})
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

/* ─── Dashboard endpoints ────────────────────────────────────────────── */

// getDailyJournal returns a day's journal entries and their totals.
// GET /api/journal/daily?date=YYYY-MM-DD (defaults to today, UTC).
func (h *Handler) getDailyJournal(c *gin.Context) {
	tgID, ok := telegramUserID(c)
	if !ok {
		return
	}
	date := c.DefaultQuery("date", time.Now().UTC().Format("2006-01-02"))

	// Validate date format before querying: an invalid value silently returns no rows.
	if _, err := time.Parse("2006-01-02", date); err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	entries, err := queryMany[journalEntry](c, h.db,
		`SELECT * FROM journal_entries
		 WHERE user_id = @userID AND (created_at AT TIME ZONE 'UTC')::date = @date
		 ORDER BY created_at, id`,
		pgx.NamedArgs{"userID": tgID, "date": date})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch journal")
		return
	}

	c.JSON(http.StatusOK, summarizeDay(date, entries))
}

// summarizeDay totals entries by kind. Profile entries carry goals, not
// consumption, and are left out of the totals.
func summarizeDay(date string, entries []journalEntry) dailyJournal {
	// Ensure entries is an empty array (not null) in JSON
	if entries == nil {
		entries = []journalEntry{}
	}
	d := dailyJournal{Date: date, Entries: entries}
	for _, e := range entries {
		switch e.Kind {
		case tracker.EntryWater:
			d.WaterML += e.Amount
		case tracker.EntryFood:
			d.FoodKcal += e.Amount
		case tracker.EntryWorkout:
			d.BurnedKcal += e.Amount
		case tracker.EntryReset:
			d.Resets++
		}
	}
	d.NetKcal = d.FoodKcal - d.BurnedKcal
	return d
}

// getWeekSummary returns per-day totals for the Mon-Sun week starting at
// week_start. Days with nothing journaled are included with has_data=false.
// GET /api/journal/week-summary?week_start=YYYY-MM-DD (defaults to current week).
func (h *Handler) getWeekSummary(c *gin.Context) {
	tgID, ok := telegramUserID(c)
	if !ok {
		return
	}

	var weekStart time.Time
	if s := c.Query("week_start"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid week_start, expected YYYY-MM-DD")
			return
		}
		weekStart = t
	} else {
		weekStart = currentMonday(time.Now())
	}
	weekEnd := weekStart.AddDate(0, 0, 6)

	// The most recent profile entry holds the current calorie goal in value_after.
	goal := 0
	latest, err := queryOne[journalEntry](c, h.db,
		`SELECT * FROM journal_entries
		 WHERE user_id = @userID AND kind = 'profile'
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		pgx.NamedArgs{"userID": tgID})
	switch {
	case err == nil:
		goal = latest.ValueAfter
	case !errors.Is(err, pgx.ErrNoRows):
		apiError(c, http.StatusInternalServerError, "failed to fetch goal")
		return
	}

	rows, err := queryMany[weekDayDBRow](c, h.db,
		`SELECT
			(created_at AT TIME ZONE 'UTC')::date AS date,
			SUM(CASE WHEN kind = 'water'   THEN amount ELSE 0 END) AS water_ml,
			SUM(CASE WHEN kind = 'food'    THEN amount ELSE 0 END) AS food_kcal,
			SUM(CASE WHEN kind = 'workout' THEN amount ELSE 0 END) AS burned_kcal
		 FROM journal_entries
		 WHERE user_id = @userID
		   AND (created_at AT TIME ZONE 'UTC')::date >= @weekStart
		   AND (created_at AT TIME ZONE 'UTC')::date <= @weekEnd
		 GROUP BY 1`,
		pgx.NamedArgs{
			"userID":    tgID,
			"weekStart": weekStart.Format("2006-01-02"),
			"weekEnd":   weekEnd.Format("2006-01-02"),
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch week data")
		return
	}

	c.JSON(http.StatusOK, buildWeek(weekStart, goal, rows))
}

// buildWeek fills a full 7-day response from the grouped rows.
func buildWeek(weekStart time.Time, goal int, rows []weekDayDBRow) []weekDaySummary {
	rowByDate := make(map[string]weekDayDBRow, len(rows))
	for _, r := range rows {
		rowByDate[r.Date.Time.Format("2006-01-02")] = r
	}

	result := make([]weekDaySummary, 7)
	for i := 0; i < 7; i++ {
		d := weekStart.AddDate(0, 0, i)
		day := weekDaySummary{Date: DateOnly{d}, CalorieGoalKcal: goal}
		if row, ok := rowByDate[d.Format("2006-01-02")]; ok {
			day.HasData = true
			day.WaterML = row.WaterML
			day.FoodKcal = row.FoodKcal
			day.BurnedKcal = row.BurnedKcal
		}
		day.NetKcal = day.FoodKcal - day.BurnedKcal
		result[i] = day
	}
	return result
}

// currentMonday returns the Monday of now's week at midnight UTC.
// AddDate handles month/year boundaries.
func currentMonday(now time.Time) time.Time {
	now = now.UTC()
	weekday := int(now.Weekday()) // 0=Sun
	if weekday == 0 {
		weekday = 7 // Mon=1..Sun=7
	}
	return now.AddDate(0, 0, -(weekday - 1)).Truncate(24 * time.Hour)
}
