package repository

import (
	"context"
	"database/sql"
	"strings"
)

type TeacherRepository struct {
	querier
}

type Teacher struct {
	ID      int64
	Subject string
	Classes string
	HOD     bool
}

func (r *TeacherRepository) FindByID(ctx context.Context, id int64) (Teacher, error) {
	var t Teacher
	err := r.queryOne(ctx, `
		SELECT id, subject, classes, hod FROM teachers WHERE id = $1
	`, func(rows *sql.Rows) error {
		if err := rows.Scan(&t.ID, &t.Subject, &t.Classes, &t.HOD); err != nil {
			return err
		}
		t.Subject = strings.TrimSpace(t.Subject)
		t.Classes = strings.TrimSpace(t.Classes)
		return nil
	}, id)
	return t, err
}

func (r *TeacherRepository) Insert(ctx context.Context, t Teacher) error {
	_, err := r.Execute(ctx, `
		INSERT INTO teachers (id, subject, classes, hod) VALUES ($1, $2, $3, $4)
	`, t.ID, t.Subject, t.Classes, t.HOD)
	return err
}
