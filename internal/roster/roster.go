// Package roster reads account rosters from spreadsheets and creates the
// accounts they describe.
//
// The first sheet is used. Its first row is a header naming the columns;
// column order does not matter and unknown columns are ignored:
//
//	role | first_name | last_name | gender | password | grade | section | subject | classes | hod
//
// Students use grade, section and classes in the student format
// ("C1 - English SL - Smith"). Teachers use subject, hod and classes in the
// teacher format ("C1 11, C4 12").
package roster

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"schoolrecords/internal/account"
	"schoolrecords/internal/enrollment"
	"schoolrecords/internal/entity"
)

var requiredColumns = []string{"role", "first_name", "last_name", "password"}

// Entry is one spreadsheet row. Exactly one of Student and Teacher is set.
type Entry struct {
	Row     int
	Student *account.StudentRequest
	Teacher *account.TeacherRequest
}

func (e Entry) Kind() entity.Kind {
	if e.Teacher != nil {
		return entity.KindTeacher
	}
	return entity.KindStudent
}

type RowError struct {
	// Row is 1-based, as shown by spreadsheet programs.
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("roster: row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Read parses a workbook. Valid rows are returned even when other rows fail;
// the failures are joined into the returned error as *RowError values.
func Read(r io.Reader, codec *enrollment.Codec) ([]Entry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("roster: open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("roster: workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("roster: read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("roster: missing column %q", col)
		}
	}

	var (
		entries []Entry
		errs    []error
	)
	for i, cells := range rows[1:] {
		rowNum := i + 2
		row := record{header: header, cells: cells}
		if row.blank() {
			continue
		}
		entry, err := parseRow(row, codec)
		if err != nil {
			errs = append(errs, &RowError{Row: rowNum, Err: err})
			continue
		}
		entry.Row = rowNum
		entries = append(entries, entry)
	}
	return entries, errors.Join(errs...)
}

type record struct {
	header map[string]int
	cells  []string
}

func (r record) get(col string) string {
	i, ok := r.header[col]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

func (r record) blank() bool {
	for _, c := range r.cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseRow(r record, codec *enrollment.Codec) (Entry, error) {
	first, last := r.get("first_name"), r.get("last_name")
	gender, ok := entity.ParseGender(r.get("gender"))
	if !ok {
		return Entry{}, fmt.Errorf("invalid gender %q", r.get("gender"))
	}
	password := r.get("password")

	switch entity.Kind(strings.ToLower(r.get("role"))) {
	case entity.KindStudent:
		grade, err := strconv.ParseInt(r.get("grade"), 10, 16)
		if err != nil {
			return Entry{}, fmt.Errorf("invalid grade %q", r.get("grade"))
		}
		section := []rune(r.get("section"))
		if len(section) != 1 {
			return Entry{}, fmt.Errorf("section must be one character, got %q", r.get("section"))
		}
		classes, err := codec.DecodeStudent(r.get("classes"), int16(grade))
		if err != nil {
			return Entry{}, err
		}
		return Entry{Student: &account.StudentRequest{
			FirstName: first,
			LastName:  last,
			Gender:    gender,
			Classes:   classes,
			Grade:     int16(grade),
			Section:   section[0],
			Password:  password,
		}}, nil

	case entity.KindTeacher:
		subject, ok := entity.ParseSubject(r.get("subject"))
		if !ok {
			return Entry{}, fmt.Errorf("unknown subject %q", r.get("subject"))
		}
		hod, err := parseYesNo(r.get("hod"))
		if err != nil {
			return Entry{}, err
		}
		fullName := entity.Person{FirstName: first, LastName: last}.FullName()
		classes, err := codec.DecodeTeacher(r.get("classes"), subject, fullName)
		if err != nil {
			return Entry{}, err
		}
		return Entry{Teacher: &account.TeacherRequest{
			FirstName: first,
			LastName:  last,
			Gender:    gender,
			Subject:   subject,
			Classes:   classes,
			HOD:       hod,
			Password:  password,
		}}, nil
	}
	return Entry{}, fmt.Errorf("unknown role %q", r.get("role"))
}

func parseYesNo(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "no", "n", "false", "0":
		return false, nil
	case "yes", "y", "true", "1":
		return true, nil
	}
	return false, fmt.Errorf("invalid hod value %q", s)
}
