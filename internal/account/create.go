package account

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"schoolrecords/internal/enrollment"
	"schoolrecords/internal/entity"
	"schoolrecords/internal/repository"
)

type StudentRequest struct {
	FirstName string
	LastName  string
	Gender    entity.Gender
	Classes   []entity.Class
	Grade     int16
	Section   rune
	Password  string
}

type TeacherRequest struct {
	FirstName string
	LastName  string
	Gender    entity.Gender
	Subject   entity.Subject
	Classes   []entity.Class
	HOD       bool
	Password  string
}

// Insert creates the account described by person, routing on its payload.
func (m *Manager) Insert(ctx context.Context, person entity.Person, password string) (int64, error) {
	switch e := person.Enrollment.(type) {
	case entity.Student:
		return m.InsertStudent(ctx, studentRequest(person, e, password))
	case *entity.Student:
		if e != nil {
			return m.InsertStudent(ctx, studentRequest(person, *e, password))
		}
	case entity.Teacher:
		return m.InsertTeacher(ctx, teacherRequest(person, e, password))
	case *entity.Teacher:
		if e != nil {
			return m.InsertTeacher(ctx, teacherRequest(person, *e, password))
		}
	}
	return 0, fmt.Errorf("%w: person has no student or teacher payload", ErrInvalidRequest)
}

func studentRequest(p entity.Person, s entity.Student, password string) StudentRequest {
	return StudentRequest{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Gender:    p.Gender,
		Classes:   s.Classes,
		Grade:     s.Grade,
		Section:   s.Section,
		Password:  password,
	}
}

func teacherRequest(p entity.Person, t entity.Teacher, password string) TeacherRequest {
	return TeacherRequest{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Gender:    p.Gender,
		Subject:   t.Subject,
		Classes:   t.Classes,
		HOD:       t.HOD,
		Password:  password,
	}
}

func (m *Manager) InsertStudent(ctx context.Context, req StudentRequest) (int64, error) {
	if err := validateNames(req.FirstName, req.LastName); err != nil {
		return 0, err
	}
	if req.Grade <= 0 {
		return 0, fmt.Errorf("%w: grade must be positive", ErrInvalidRequest)
	}
	if req.Section == 0 || !unicode.IsPrint(req.Section) || unicode.IsSpace(req.Section) {
		return 0, fmt.Errorf("%w: section must be one printable character", ErrInvalidRequest)
	}
	if err := enrollment.CheckStudent(req.Classes); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	row := repository.Student{
		Classes: enrollment.EncodeStudent(req.Classes),
		Grade:   req.Grade,
		Section: string(req.Section),
	}
	return m.create(ctx, entity.KindStudent, req.FirstName, req.LastName, req.Gender, req.Password,
		func(tx *repository.AccountStore, id int64) error {
			row.ID = id
			return tx.Students.Insert(ctx, row)
		})
}

func (m *Manager) InsertTeacher(ctx context.Context, req TeacherRequest) (int64, error) {
	if err := validateNames(req.FirstName, req.LastName); err != nil {
		return 0, err
	}
	if _, ok := entity.ParseSubject(string(req.Subject)); !ok {
		return 0, fmt.Errorf("%w: unknown subject %q (one of %v)", ErrInvalidRequest, req.Subject, entity.Subjects())
	}
	if err := enrollment.CheckTeacher(req.Classes); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	row := repository.Teacher{
		Subject: string(req.Subject),
		Classes: enrollment.EncodeTeacher(req.Classes),
		HOD:     req.HOD,
	}
	return m.create(ctx, entity.KindTeacher, req.FirstName, req.LastName, req.Gender, req.Password,
		func(tx *repository.AccountStore, id int64) error {
			row.ID = id
			return tx.Teachers.Insert(ctx, row)
		})
}

// create writes the users row, the role row and the counts bump in one
// transaction under the counter, so a failure at any step rolls back all of
// them and leaves the ID unused.
func (m *Manager) create(
	ctx context.Context,
	kind entity.Kind,
	firstName, lastName string,
	gender entity.Gender,
	password string,
	insertRole func(tx *repository.AccountStore, id int64) error,
) (int64, error) {
	digest, err := m.digest(password)
	if err != nil {
		return 0, err
	}

	user := repository.User{
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Gender:    gender,
		Username:  entity.Username(firstName, lastName),
		Password:  digest,
		Role:      kind,
	}
	op := newOpID()
	log := m.logger.With(zap.String("op", op), zap.String("kind", string(kind)), zap.String("username", user.Username))

	id, err := m.counter.Reserve(ctx, kind, func(id int64) error {
		return m.store.WithTx(ctx, func(tx *repository.AccountStore) error {
			user.ID = id
			if err := tx.Users.Insert(ctx, user); err != nil {
				return err
			}
			if err := insertRole(tx, id); err != nil {
				return err
			}
			return tx.Users.BumpCounts(ctx, kind)
		})
	})
	if err != nil {
		log.Error("Account creation failed", zap.Error(err))
		return 0, err
	}

	log.Info("Account created", zap.Int64("id", id))
	return id, nil
}

func validateNames(firstName, lastName string) error {
	for _, name := range []string{firstName, lastName} {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: first and last name are required", ErrInvalidRequest)
		}
	}
	return nil
}
