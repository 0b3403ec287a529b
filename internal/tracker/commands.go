package tracker

import (
	"context"
	"fmt"
	"log"
	"strings"
)

const helpText = "Привет! Я бот для расчёта нормы воды, калорий и отслеживания прогресса.\n\n" +
	"Основные команды:\n" +
	"/set_profile — настроить профиль\n" +
	"/log_water — добавить воду (мл)\n" +
	"/log_food — добавить еду (потом спрошу граммы)\n" +
	"/log_workout — добавить тренировку\n" +
	"/check_progress — прогресс за день\n" +
	"/reset_day — сбросить дневные логи\n" +
	"/plot — графики прогресса\n" +
	"/recommend — рекомендации\n" +
	"/cancel — отменить текущий ввод"

// command runs a slash command. The caller holds the user's lock.
func (b *Bot) command(st *UserState, userID int64, cmd, arg string) outcome {
	switch cmd {
	case "start", "help":
		return reply(helpText)
	case "set_profile":
		return b.startProfile(st)
	case "cancel":
		return b.cancel(st)
	}

	// Everything below works on the ledger.
	if st.Ledger == nil {
		switch cmd {
		case "log_water", "log_food", "log_workout", "reset_day", "check_progress", "plot", "recommend":
			return errorReply(ErrMissingProfile)
		}
		return reply("Неизвестная команда. Список команд: /help")
	}

	switch cmd {
	case "log_water":
		return b.logWater(st, userID, arg)
	case "log_food":
		return b.lookupFood(st, userID, arg)
	case "log_workout":
		return b.logWorkout(st, userID, arg)
	case "reset_day":
		st.Ledger.ResetDay()
		return outcome{
			replies: []Reply{text("✅ Дневные данные сброшены. Профиль сохранён.")},
			entries: []Entry{{UserID: userID, Kind: EntryReset, At: b.now()}},
		}
	case "check_progress":
		return reply(formatSummary(Summarize(st.Ledger)))
	case "recommend":
		return reply(strings.Join(Recommend(st.Ledger), "\n\n"))
	case "plot":
		return b.plot(st)
	}
	return reply("Неизвестная команда. Список команд: /help")
}

// continueConversation feeds plain text to whatever is open.
func (b *Bot) continueConversation(st *UserState, userID int64, msg string) outcome {
	switch {
	case st.Session != nil:
		return b.submitProfile(st, userID, msg)
	case st.PendingFood != nil:
		return b.logFoodGrams(st, userID, msg)
	}
	return errorReply(ErrUnknownState)
}

func (b *Bot) cancel(st *UserState) outcome {
	if !st.InConversation() {
		return reply("Сейчас нечего отменять 🙂")
	}
	st.ClearConversation()
	return reply("✅ Отменено. Можешь начать заново: /set_profile или /log_food ...")
}

/* ─── Profile setup ──────────────────────────────────────────────────── */

func (b *Bot) startProfile(st *UserState) outcome {
	sess := NewProfileSession()
	st.StartSession(sess)
	return reply("Давайте настроим профиль.\n\n" + sess.Prompt())
}

func (b *Bot) submitProfile(st *UserState, userID int64, msg string) outcome {
	sess := st.Session
	if sess.Done() {
		return reply("⏳ Сохраняю профиль, подождите немного...")
	}
	if err := sess.Submit(msg); err != nil {
		return errorReply(err)
	}
	if !sess.Done() {
		return reply(sess.Prompt())
	}

	// All answers are in. Resolve the weather with the lock released, then
	// commit only if this session is still the open one.
	city := sess.Answers.City
	return outcome{after: func(ctx context.Context) outcome {
		temp := b.weather.Temperature(ctx, city)
		return b.locked(userID, func(st *UserState) outcome {
			return b.completeProfile(st, userID, sess, temp)
		})
	}}
}

func (b *Bot) completeProfile(st *UserState, userID int64, sess *ProfileSession, temp *float64) outcome {
	if st.Session != sess {
		log.Printf("[bot] profile for user %d superseded before commit", userID)
		return outcome{}
	}

	p := NewUserProfile(sess.Answers, temp)
	st.Ledger = NewDailyLedger(p, b.now)
	st.ClearConversation()

	tempText := "Не удалось определить"
	if temp != nil {
		tempText = fmt.Sprintf("%.1f°C", *temp)
	}

	return outcome{
		replies: []Reply{text(fmt.Sprintf(
			"✅ Профиль сохранён.\n"+
				"Город: %s (температура: %s)\n\n"+
				"💧 Норма воды: %d мл/день\n"+
				"🔥 Норма калорий: %d ккал/день\n\n"+
				"Теперь можно:\n/log_water\n/log_food\n/log_workout\n/check_progress\n/reset_day",
			p.City, tempText, p.WaterGoalML, p.CalorieGoalKcal))},
		entries: []Entry{{
			UserID: userID, Kind: EntryProfile, Label: p.City,
			Amount: p.WaterGoalML, ValueAfter: p.CalorieGoalKcal, At: b.now(),
		}},
	}
}

/* ─── Ledger commands ────────────────────────────────────────────────── */

func (b *Bot) logWater(st *UserState, userID int64, arg string) outcome {
	if arg == "" {
		return reply("Укажи количество воды в мл. Пример: /log_water 250")
	}
	ml, ok := parseInt(arg)
	if !ok {
		ml = -1
	}
	res, err := st.Ledger.LogWater(ml)
	if err != nil {
		return errorReply(err)
	}
	return outcome{
		replies: []Reply{text(fmt.Sprintf("💧 Записано: %d мл\nВсего за день: %d / %d мл\nОсталось: %d мл",
			res.Added, res.Total, res.Goal, res.Remaining))},
		entries: []Entry{{UserID: userID, Kind: EntryWater, Amount: res.Added, ValueAfter: res.Total, At: b.now()}},
	}
}

func (b *Bot) logWorkout(st *UserState, userID int64, arg string) outcome {
	fields := strings.Fields(arg)
	if len(fields) < 2 {
		return reply("Формат: /log_workout <тип> <мин>\nПример: /log_workout бег 30")
	}
	kind := strings.ToLower(fields[0])
	minutes, ok := parseInt(fields[1])
	if !ok {
		minutes = -1
	}
	res, err := st.Ledger.LogWorkout(kind, minutes)
	if err != nil {
		return errorReply(err)
	}
	return outcome{
		replies: []Reply{text(fmt.Sprintf(
			"🏋️ Тренировка записана: %s, %d мин\n🔥 Сожжено: ~%d ккал\n💧 Норма воды увеличена на: %d мл\nНовая норма воды: %d мл",
			res.Kind, res.Minutes, res.Burned, res.WaterBonus, res.WaterGoalML))},
		entries: []Entry{{UserID: userID, Kind: EntryWorkout, Label: res.Kind, Amount: res.Burned, ValueAfter: st.Ledger.BurnedKcal, At: b.now()}},
	}
}

// lookupFood is the first phase of /log_food: resolve the product outside
// the lock, then open a PendingFoodLookup if nothing changed meanwhile.
func (b *Bot) lookupFood(st *UserState, userID int64, query string) outcome {
	if query == "" {
		return reply("Укажи продукт. Пример: /log_food banana")
	}
	seq := st.Seq
	return outcome{after: func(ctx context.Context) outcome {
		item, found := b.food.Lookup(ctx, query)
		return b.locked(userID, func(st *UserState) outcome {
			if !found {
				return errorReply(ErrNotFound)
			}
			if st.Ledger == nil {
				return errorReply(ErrMissingProfile)
			}
			if st.Seq != seq {
				log.Printf("[bot] food lookup for user %d superseded before commit", userID)
				return outcome{}
			}
			st.AwaitGrams(item)
			return reply(fmt.Sprintf("🍏 Найдено: %s\nКалорийность: %.1f ккал/100г\n\nСколько грамм съели? (введи число, например 120)\nОтмена: /cancel",
				item.Name, item.KcalPer100G))
		})
	}}
}

// logFoodGrams is the second phase of /log_food.
func (b *Bot) logFoodGrams(st *UserState, userID int64, msg string) outcome {
	if st.Ledger == nil {
		st.ClearConversation()
		return errorReply(ErrMissingProfile)
	}
	grams, ok := parseInt(msg)
	if !ok {
		grams = -1
	}
	res, err := st.Ledger.LogFood(st.PendingFood.Item, grams)
	if err != nil {
		return errorReply(err)
	}
	st.ClearConversation()
	return outcome{
		replies: []Reply{text(fmt.Sprintf("✅ Записано: %s\nГраммы: %d г\nДобавлено: ~%d ккал\nВсего съедено за день: %d ккал",
			res.Item.Name, res.Grams, res.Added, res.Total))},
		entries: []Entry{{UserID: userID, Kind: EntryFood, Label: res.Item.Name, Amount: res.Added, ValueAfter: res.Total, At: b.now()}},
	}
}

func formatSummary(s Summary) string {
	return fmt.Sprintf("📊 Прогресс за день:\n\n"+
		"💧 Вода: %d/%d мл (осталось %d мл)\n"+
		"🍽 Съедено: %d ккал\n"+
		"🏃 Сожжено: %d ккал\n"+
		"⚖️ Баланс: %d ккал\n"+
		"🎯 Цель: %d ккал\n"+
		"Осталось до цели: %d ккал",
		s.WaterML, s.WaterGoalML, s.WaterRemainingML,
		s.EatenKcal, s.BurnedKcal, s.BalanceKcal, s.CalorieGoalKcal, s.RemainingKcal)
}

/* ─── Charts ─────────────────────────────────────────────────────────── */

type chartSpec struct {
	series   Series
	title    string
	yLabel   string
	goal     *int
	filename string
}

// plot snapshots the series under the lock and renders them after release.
func (b *Bot) plot(st *UserState) outcome {
	if b.charts == nil {
		return reply("Графики сейчас недоступны.")
	}
	snap := st.Ledger.Snapshot()
	if len(snap.Water) < 2 && len(snap.Food) < 2 {
		return reply("Пока недостаточно данных для графиков. Сначала добавь воду/еду/тренировку.")
	}

	waterGoal, calorieGoal := snap.Profile.WaterGoalML, snap.Profile.CalorieGoalKcal
	specs := []chartSpec{
		{snap.Water, "Прогресс воды за день", "мл", &waterGoal, "water.png"},
		{snap.Food, "Прогресс калорий за день", "ккал", &calorieGoal, "calories.png"},
		{snap.Burned, "Сожжённые калории за день", "ккал", nil, "burned.png"},
	}

	return outcome{after: func(ctx context.Context) outcome {
		var out outcome
		for _, c := range specs {
			if len(c.series) < 2 {
				continue
			}
			img, err := b.charts.Render(samples(c.series), c.title, c.yLabel, c.goal)
			if err != nil {
				log.Printf("[bot] render %s failed: %v", c.filename, err)
				out.replies = append(out.replies, text("Не удалось построить график: "+c.title))
				continue
			}
			out.replies = append(out.replies, Reply{Image: img, Filename: c.filename})
		}
		return out
	}}
}

func samples(s Series) []Sample {
	out := make([]Sample, len(s))
	for i, p := range s {
		out[i] = Sample{Label: p.At.Format("15:04"), Value: p.Value}
	}
	return out
}
