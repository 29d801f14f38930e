package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ihacademy/academy-server/internal/model"
)

// SportRepo provides access to the sports lookup table.
type SportRepo struct{ db *sql.DB }

func NewSportRepo(db *sql.DB) *SportRepo { return &SportRepo{db: db} }

// ListAll returns every sport ordered by name.
func (r *SportRepo) ListAll(ctx context.Context) ([]model.Sport, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, color, icon FROM sports ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sports := make([]model.Sport, 0)
	for rows.Next() {
		var s model.Sport
		if err := rows.Scan(&s.ID, &s.Name, &s.Color, &s.Icon); err != nil {
			return nil, err
		}
		sports = append(sports, s)
	}
	return sports, rows.Err()
}

// GetByID returns one sport or sql.ErrNoRows.
func (r *SportRepo) GetByID(ctx context.Context, id uint64) (model.Sport, error) {
	var s model.Sport
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, color, icon FROM sports WHERE id = ?", id).
		Scan(&s.ID, &s.Name, &s.Color, &s.Icon)
	return s, err
}

// Create inserts a sport; duplicate names map to ErrConflict.
func (r *SportRepo) Create(ctx context.Context, s *model.Sport) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO sports (name, color, icon) VALUES (?,?,?)",
		s.Name, s.Color, s.Icon)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// Delete removes a sport. Sports referenced by classes are protected by
// the foreign key; MySQL error 1451 is mapped to ErrConflict.
func (r *SportRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM sports WHERE id = ?", id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1451") {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
