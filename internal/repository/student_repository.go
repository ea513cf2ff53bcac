package repository

import (
	"context"
	"database/sql"
	"strings"
)

type StudentRepository struct {
	querier
}

type Student struct {
	ID      int64
	Classes string
	Grade   int16
	Section string
}

func (r *StudentRepository) FindByID(ctx context.Context, id int64) (Student, error) {
	var s Student
	err := r.queryOne(ctx, `
		SELECT id, classes, grade, section FROM students WHERE id = $1
	`, func(rows *sql.Rows) error {
		if err := rows.Scan(&s.ID, &s.Classes, &s.Grade, &s.Section); err != nil {
			return err
		}
		s.Classes = strings.TrimSpace(s.Classes)
		s.Section = strings.TrimSpace(s.Section)
		return nil
	}, id)
	return s, err
}

func (r *StudentRepository) Insert(ctx context.Context, s Student) error {
	_, err := r.Execute(ctx, `
		INSERT INTO students (id, classes, grade, section) VALUES ($1, $2, $3, $4)
	`, s.ID, s.Classes, s.Grade, s.Section)
	return err
}
