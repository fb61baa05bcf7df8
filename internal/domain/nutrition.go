package domain

import (
	"math"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used for nutrition logs.
const DateLayout = "2006-01-02"

// MealType classifies a nutrition log entry.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// MealTypes lists meal types in display order.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack}

// Valid reports whether m is a known meal type.
func (m MealType) Valid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

// NutritionLog is one food entry.
type NutritionLog struct {
	ID        string
	UserID    string
	FoodName  string
	Calories  int
	Protein   float64
	Carbs     float64
	Fats      float64
	Date      string
	MealType  MealType
	CreatedAt time.Time
}

// Validate checks a food entry.
func (n NutritionLog) Validate() error {
	if strings.TrimSpace(n.FoodName) == "" {
		return invalid("food_name", "is required")
	}
	if n.Calories < 0 {
		return invalid("calories", "must be >= 0")
	}
	if n.Protein < 0 || n.Carbs < 0 || n.Fats < 0 {
		return invalid("macros", "protein, carbs and fats must be >= 0")
	}
	if !n.MealType.Valid() {
		return invalid("meal_type", "must be breakfast, lunch, dinner or snack")
	}
	if _, err := time.Parse(DateLayout, n.Date); err != nil {
		return invalid("date", "must be YYYY-MM-DD")
	}
	return nil
}

// MacroTotals sums calories and macronutrients.
type MacroTotals struct {
	Calories int
	Protein  float64
	Carbs    float64
	Fats     float64
}

func (t *MacroTotals) add(n NutritionLog) {
	t.Calories += n.Calories
	t.Protein += n.Protein
	t.Carbs += n.Carbs
	t.Fats += n.Fats
}

// DailySummary totals one day of logs overall and per meal type.
type DailySummary struct {
	Date   string
	Totals MacroTotals
	ByMeal map[MealType]MacroTotals
	Logs   []NutritionLog
}

// Summarize totals logs for date. Logs from other dates are ignored.
func Summarize(date string, logs []NutritionLog) DailySummary {
	summary := DailySummary{Date: date, ByMeal: make(map[MealType]MacroTotals, len(MealTypes)), Logs: make([]NutritionLog, 0, len(logs))}
	for _, mt := range MealTypes {
		summary.ByMeal[mt] = MacroTotals{}
	}
	for _, l := range logs {
		if l.Date != date {
			continue
		}
		summary.Totals.add(l)
		meal := summary.ByMeal[l.MealType]
		meal.add(l)
		summary.ByMeal[l.MealType] = meal
		summary.Logs = append(summary.Logs, l)
	}
	return summary
}

// FoodSuggestion is one recommended food with its reason.
type FoodSuggestion struct {
	Name     string
	Calories int
	Protein  float64
	Carbs    float64
	Fats     float64
	Reason   string
}

// MacroTargets are daily intake targets.
type MacroTargets struct {
	Calories int
	Protein  int
	Carbs    int
	Fats     int
}

// Recommendation bundles the food list and macro targets for a goal.
type Recommendation struct {
	Goal    string
	Foods   []FoodSuggestion
	Targets MacroTargets
}

// Default body measurements used when the profile has none.
const (
	DefaultWeightKg = 70.0
	DefaultHeightCm = 170.0
	assumedAge      = 30
)

// Nutrition facts are per 100 g.
var foodsByGoal = map[string][]FoodSuggestion{
	GoalWeightLoss: {
		{Name: "Куриная грудка", Calories: 165, Protein: 31, Carbs: 0, Fats: 3.6, Reason: "Высокое содержание белка помогает сохранять мышечную массу при снижении веса"},
		{Name: "Греческий йогурт", Calories: 100, Protein: 10, Carbs: 4, Fats: 5, Reason: "Низкокалорийный источник белка, который помогает дольше чувствовать сытость"},
		{Name: "Брокколи", Calories: 34, Protein: 2.8, Carbs: 6.6, Fats: 0.4, Reason: "Низкокалорийный овощ, богатый клетчаткой, которая способствует насыщению"},
	},
	GoalMuscleGain: {
		{Name: "Лосось", Calories: 206, Protein: 22, Carbs: 0, Fats: 13, Reason: "Богат белком и полезными жирами, необходимыми для роста мышц"},
		{Name: "Яйца", Calories: 155, Protein: 13, Carbs: 1.1, Fats: 11, Reason: "Содержат все незаменимые аминокислоты, необходимые для восстановления мышц"},
		{Name: "Овсянка", Calories: 389, Protein: 16.9, Carbs: 66, Fats: 6.9, Reason: "Обеспечивает долгий приток энергии и содержит белок растительного происхождения"},
	},
	GoalEndurance: {
		{Name: "Бананы", Calories: 89, Protein: 1.1, Carbs: 22.8, Fats: 0.3, Reason: "Быстрый источник энергии и богаты калием, который помогает предотвратить судороги"},
		{Name: "Киноа", Calories: 368, Protein: 14, Carbs: 64, Fats: 6, Reason: "Содержит комплексные углеводы для длительного высвобождения энергии"},
		{Name: "Сладкий картофель", Calories: 86, Protein: 1.6, Carbs: 20, Fats: 0.1, Reason: "Отличный источник сложных углеводов и богат антиоксидантами"},
	},
	GoalFlexibility: {
		{Name: "Авокадо", Calories: 160, Protein: 2, Carbs: 8.5, Fats: 14.7, Reason: "Содержит полезные жиры и витамин E, которые помогают восстанавливать мышцы"},
		{Name: "Черника", Calories: 57, Protein: 0.7, Carbs: 14, Fats: 0.3, Reason: "Богата антиоксидантами, которые помогают уменьшить воспаление"},
		{Name: "Темный шоколад", Calories: 598, Protein: 7.8, Carbs: 45.9, Fats: 43, Reason: "Содержит магний, который помогает расслабить мышцы"},
	},
	GoalOverallHealth: {
		{Name: "Шпинат", Calories: 23, Protein: 2.9, Carbs: 3.6, Fats: 0.4, Reason: "Богат железом, витаминами и минералами, необходимыми для общего здоровья"},
		{Name: "Орехи миндаля", Calories: 579, Protein: 21, Carbs: 21, Fats: 49, Reason: "Содержат полезные жиры, белок и витамин E для поддержания здоровья сердца"},
		{Name: "Чечевица", Calories: 116, Protein: 9, Carbs: 20, Fats: 0.4, Reason: "Отличный источник растительного белка и клетчатки"},
	},
}

// Recommend returns foods and macro targets for goal. Unknown or empty goals fall back to
// overall health; non-positive measurements fall back to the defaults.
func Recommend(goal string, weightKg, heightCm float64) Recommendation {
	if weightKg <= 0 {
		weightKg = DefaultWeightKg
	}
	if heightCm <= 0 {
		heightCm = DefaultHeightCm
	}
	foods, ok := foodsByGoal[goal]
	if !ok {
		goal = GoalOverallHealth
		foods = foodsByGoal[GoalOverallHealth]
	}
	return Recommendation{
		Goal:    goal,
		Foods:   append([]FoodSuggestion(nil), foods...),
		Targets: TargetsFor(goal, weightKg, heightCm),
	}
}

// TargetsFor computes daily macro targets from a Mifflin-St Jeor basal rate at a fixed age.
func TargetsFor(goal string, weightKg, heightCm float64) MacroTargets {
	bmr := 10*weightKg + 6.25*heightCm - 5*assumedAge + 5

	var t MacroTargets
	switch goal {
	case GoalWeightLoss:
		t.Calories = round(bmr*1.2 - 500)
		t.Protein = round(weightKg * 2)
		t.Carbs = round(weightKg * 2)
		t.Fats = round(weightKg * 0.8)
	case GoalMuscleGain:
		t.Calories = round(bmr*1.6 + 300)
		t.Protein = round(weightKg * 2.2)
		t.Carbs = round(weightKg * 5)
		t.Fats = round(weightKg * 1)
	case GoalEndurance:
		t.Calories = round(bmr * 1.7)
		t.Protein = round(weightKg * 1.6)
		t.Carbs = round(weightKg * 6)
		t.Fats = round(weightKg * 0.9)
	default:
		t.Calories = round(bmr * 1.4)
		t.Protein = round(weightKg * 1.2)
		t.Carbs = round(weightKg * 3)
		t.Fats = round(weightKg * 0.9)
	}
	return t
}

// round matches half-up rounding for the positive values used here.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
