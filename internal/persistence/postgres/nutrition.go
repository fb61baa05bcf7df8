package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"example.com/fitcoach/internal/domain"
	platformevents "example.com/fitcoach/pkg/platform/events"
)

// AddLog implements domain.NutritionRepository.
func (s *Store) AddLog(ctx context.Context, l domain.NutritionLog) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO nutrition_logs (log_id, user_id, food_name, calories, protein, carbs, fats, log_date, meal_type, created_at)
             VALUES ($1,$2,$3,$4,$5,$6,$7,$8::date,$9,$10)`,
			l.ID, l.UserID, l.FoodName, l.Calories, l.Protein, l.Carbs, l.Fats, l.Date, string(l.MealType), l.CreatedAt,
		); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, outboxEvent{
			EventType:   platformevents.TypeNutritionLogged,
			AggregateID: l.ID,
			UserID:      l.UserID,
			Payload: platformevents.NutritionLogged{
				LogID:      l.ID,
				UserID:     l.UserID,
				MealType:   string(l.MealType),
				Calories:   l.Calories,
				Date:       l.Date,
				OccurredAt: l.CreatedAt,
			},
		})
	})
}

// ListLogs implements domain.NutritionRepository. An empty date lists every day.
func (s *Store) ListLogs(ctx context.Context, userID, date string) ([]domain.NutritionLog, error) {
	query := `SELECT log_id, user_id, food_name, calories, protein, carbs, fats, to_char(log_date, 'YYYY-MM-DD'), meal_type, created_at
        FROM nutrition_logs WHERE user_id=$1`
	args := []any{userID}
	if date != "" {
		query += ` AND log_date=$2::date`
		args = append(args, date)
	}
	query += ` ORDER BY log_date, created_at`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.NutritionLog, 0)
	for rows.Next() {
		var l domain.NutritionLog
		var meal string
		if err := rows.Scan(&l.ID, &l.UserID, &l.FoodName, &l.Calories, &l.Protein, &l.Carbs, &l.Fats, &l.Date, &meal, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.MealType = domain.MealType(meal)
		out = append(out, l)
	}
	return out, rows.Err()
}

// DeleteLog implements domain.NutritionRepository. Only the owner's rows match.
func (s *Store) DeleteLog(ctx context.Context, userID, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM nutrition_logs WHERE log_id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
