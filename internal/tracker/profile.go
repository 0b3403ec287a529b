package tracker

import (
	"math"
	"strconv"
	"strings"
)

// Step is the state of a ProfileSession. Steps advance linearly; the
// manual-calories step is only entered when the user opts in.
type Step int

const (
	AwaitingWeight Step = iota
	AwaitingHeight
	AwaitingAge
	AwaitingActivity
	AwaitingCity
	AwaitingManualChoice
	AwaitingManualCalories
	Complete
)

var stepNames = [...]string{
	AwaitingWeight:         "awaiting_weight",
	AwaitingHeight:         "awaiting_height",
	AwaitingAge:            "awaiting_age",
	AwaitingActivity:       "awaiting_activity",
	AwaitingCity:           "awaiting_city",
	AwaitingManualChoice:   "awaiting_manual_choice",
	AwaitingManualCalories: "awaiting_manual_calories",
	Complete:               "complete",
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "unknown"
	}
	return stepNames[s]
}

// ProfileAnswers accumulates the validated answers of a ProfileSession.
// ManualCalories is nil unless the user chose to set the calorie goal by hand.
type ProfileAnswers struct {
	WeightKG       float64
	HeightCM       int
	Age            int
	ActivityMin    int
	City           string
	ManualCalories *int
}

// ProfileSession collects the profile over several turns. It is transient:
// the Bot drops it on completion, on /cancel, or when /set_profile restarts.
type ProfileSession struct {
	Step    Step
	Answers ProfileAnswers
}

// NewProfileSession starts a session at AwaitingWeight with no answers.
func NewProfileSession() *ProfileSession {
	return &ProfileSession{Step: AwaitingWeight}
}

// Done reports whether every answer has been collected.
func (s *ProfileSession) Done() bool {
	return s.Step == Complete
}

// CollectingManualGoal reports whether the session is on the optional branch.
func (s *ProfileSession) CollectingManualGoal() bool {
	return s.Step == AwaitingManualCalories
}

// Submit validates input against the current step. On success the answer is
// stored and the step advances; on failure a *ValidationError is returned and
// the session is left exactly as it was.
func (s *ProfileSession) Submit(input string) error {
	next, answers, err := advance(s.Step, s.Answers, input)
	if err != nil {
		return err
	}
	s.Step = next
	s.Answers = answers
	return nil
}

// Prompt is the question to show for the current step.
func (s *ProfileSession) Prompt() string {
	return stepPrompts[s.Step]
}

var stepPrompts = map[Step]string{
	AwaitingWeight:         "Введите вес (кг), например: 70\nОтмена: /cancel",
	AwaitingHeight:         "Введите рост (см), например: 175",
	AwaitingAge:            "Введите возраст (лет), например: 22",
	AwaitingActivity:       "Введите активность (минуты в день), например: 40",
	AwaitingCity:           "Введите город, например: Moscow или Tel Aviv\nОтмена: /cancel",
	AwaitingManualChoice:   "Хотите задать цель по калориям вручную? (Да/Нет)\nОтмена: /cancel",
	AwaitingManualCalories: "Введите цель по калориям (ккал в день), например: 2000",
}

var (
	yesTokens = map[string]bool{"да": true, "д": true, "yes": true, "y": true}
	noTokens  = map[string]bool{"нет": true, "н": true, "no": true, "n": true}
)

// advance is the transition function of the profile state machine. It never
// mutates its arguments.
func advance(step Step, a ProfileAnswers, input string) (Step, ProfileAnswers, error) {
	switch step {
	case AwaitingWeight:
		w, ok := parseFloat(input)
		if !ok || w <= 0 || w > 400 {
			return step, a, invalid("weight", "Вес должен быть числом в кг (например 70). Попробуйте ещё раз:")
		}
		a.WeightKG = w
		return AwaitingHeight, a, nil

	case AwaitingHeight:
		h, ok := parseInt(input)
		if !ok || h < 50 || h > 260 {
			return step, a, invalid("height", "Рост должен быть целым числом в см (например 175). Попробуйте ещё раз:")
		}
		a.HeightCM = h
		return AwaitingAge, a, nil

	case AwaitingAge:
		age, ok := parseInt(input)
		if !ok || age < 5 || age > 120 {
			return step, a, invalid("age", "Возраст должен быть целым числом (например 22). Попробуйте ещё раз:")
		}
		a.Age = age
		return AwaitingActivity, a, nil

	case AwaitingActivity:
		act, ok := parseInt(input)
		if !ok || act < 0 || act > 1000 {
			return step, a, invalid("activity", "Активность должна быть целым числом минут (например 40). Попробуйте ещё раз:")
		}
		a.ActivityMin = act
		return AwaitingCity, a, nil

	case AwaitingCity:
		city := strings.TrimSpace(input)
		if city == "" {
			return step, a, invalid("city", "Город не должен быть пустым. Введите город, например: Moscow")
		}
		a.City = city
		return AwaitingManualChoice, a, nil

	case AwaitingManualChoice:
		ans := strings.ToLower(strings.TrimSpace(input))
		switch {
		case yesTokens[ans]:
			return AwaitingManualCalories, a, nil
		case noTokens[ans]:
			a.ManualCalories = nil
			return Complete, a, nil
		}
		return step, a, invalid("manual_choice", "Ответьте 'да' или 'нет'.")

	case AwaitingManualCalories:
		goal, ok := parseInt(input)
		if !ok || goal < 800 || goal > 10000 {
			return step, a, invalid("calorie_goal", "Цель калорий должна быть числом (например 2000). Попробуйте ещё раз:")
		}
		a.ManualCalories = &goal
		return Complete, a, nil
	}

	return step, a, ErrUnknownState
}

// parseFloat accepts both "70.5" and "70,5". NaN and infinities are rejected.
func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}
