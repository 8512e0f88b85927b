package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gme-rota-api/internal/models"
)

// PersonRepository reads schedulable actors. People are managed by the
// surrounding administrative system; the engine only consumes them.
type PersonRepository struct {
	db *sqlx.DB
}

// NewPersonRepository constructs a PersonRepository.
func NewPersonRepository(db *sqlx.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

// ListActive returns all active people with their specialties attached.
func (r *PersonRepository) ListActive(ctx context.Context) ([]models.Person, error) {
	const query = `SELECT id, name, role_class, pgy_level, primary_duty, performs_procedures, created_at
FROM people WHERE active = TRUE ORDER BY name ASC, id ASC`
	var people []models.Person
	if err := r.db.SelectContext(ctx, &people, query); err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	if len(people) == 0 {
		return people, nil
	}

	const specialtyQuery = `SELECT person_id, specialty FROM person_specialties ORDER BY person_id, specialty`
	rows, err := r.db.QueryxContext(ctx, specialtyQuery)
	if err != nil {
		return nil, fmt.Errorf("list person specialties: %w", err)
	}
	defer rows.Close()

	specialties := make(map[string][]string)
	for rows.Next() {
		var personID, specialty string
		if err := rows.Scan(&personID, &specialty); err != nil {
			return nil, fmt.Errorf("scan person specialty: %w", err)
		}
		specialties[personID] = append(specialties[personID], specialty)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate person specialties: %w", err)
	}

	for i := range people {
		people[i].Specialties = specialties[people[i].ID]
	}
	return people, nil
}

// ListPreferences returns activity-type affinity per person, keyed as
// person ID -> activity type -> score in [0,1].
func (r *PersonRepository) ListPreferences(ctx context.Context) (map[string]map[string]float64, error) {
	const query = `SELECT person_id, activity_type, score FROM person_preferences`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	defer rows.Close()

	prefs := make(map[string]map[string]float64)
	for rows.Next() {
		var personID, activityType string
		var score float64
		if err := rows.Scan(&personID, &activityType, &score); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		if prefs[personID] == nil {
			prefs[personID] = make(map[string]float64)
		}
		prefs[personID][activityType] = score
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate preferences: %w", err)
	}
	return prefs, nil
}
