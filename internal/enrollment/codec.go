// Package enrollment converts class lists to and from the flat strings kept
// in the students.classes and teachers.classes columns.
//
// Student entries are written as "{block} - {subject} - {teacher}", teacher
// entries as "{block} {grade}", both joined with ", ".
package enrollment

import (
	"fmt"
	"strconv"
	"strings"

	"schoolrecords/internal/entity"
)

const (
	entrySep = ", "
	fieldSep = " - "
)

type Policy int

const (
	// Strict fails the whole decode on the first malformed entry.
	Strict Policy = iota
	// Permissive drops malformed entries and keeps the rest.
	Permissive
)

func (p Policy) String() string {
	if p == Permissive {
		return "permissive"
	}
	return "strict"
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "permissive", "drop":
		return Permissive, nil
	}
	return Strict, fmt.Errorf("enrollment: unknown policy %q", s)
}

type Codec struct {
	Policy Policy
	// OnDrop is called for every entry skipped under Permissive.
	OnDrop func(err *DecodeError)
}

func New(policy Policy) *Codec {
	return &Codec{Policy: policy}
}

// EncodeStudent renders classes in the student direction. Classes with no
// teacher are written without the teacher segment.
func EncodeStudent(classes []entity.Class) string {
	parts := make([]string, 0, len(classes))
	for _, c := range classes {
		entry := c.Block + fieldSep + c.SubjectLabel()
		if c.Teacher != "" {
			entry += fieldSep + c.Teacher
		}
		parts = append(parts, entry)
	}
	return strings.Join(parts, entrySep)
}

// EncodeTeacher renders classes in the teacher direction. Subject and teacher
// name are not written; they are always the teacher's own.
func EncodeTeacher(classes []entity.Class) string {
	parts := make([]string, 0, len(classes))
	for _, c := range classes {
		parts = append(parts, c.Block+" "+strconv.Itoa(int(c.Grade)))
	}
	return strings.Join(parts, entrySep)
}

// DecodeStudent parses a student class string. Every decoded class gets the
// student's grade.
func (c *Codec) DecodeStudent(src string, grade int16) ([]entity.Class, error) {
	entries := splitEntries(src)
	classes := make([]entity.Class, 0, len(entries))
	for i, raw := range entries {
		class, reason := parseStudentEntry(raw)
		if reason != "" {
			if err := c.reject(i, raw, reason); err != nil {
				return nil, err
			}
			continue
		}
		class.Grade = grade
		classes = append(classes, class)
	}
	return classes, nil
}

// DecodeTeacher parses a teacher class string. subject and teacher apply to
// every entry.
func (c *Codec) DecodeTeacher(src string, subject entity.Subject, teacher string) ([]entity.Class, error) {
	entries := splitEntries(src)
	classes := make([]entity.Class, 0, len(entries))
	_, known := entity.ParseSubject(string(subject))
	for i, raw := range entries {
		if !known {
			if err := c.reject(i, raw, fmt.Sprintf("unknown subject %q", subject)); err != nil {
				return nil, err
			}
			continue
		}
		block, grade, reason := parseTeacherEntry(raw)
		if reason != "" {
			if err := c.reject(i, raw, reason); err != nil {
				return nil, err
			}
			continue
		}
		classes = append(classes, entity.Class{
			Subject: subject,
			Teacher: teacher,
			Block:   block,
			Grade:   grade,
		})
	}
	return classes, nil
}

func (c *Codec) reject(index int, raw, reason string) error {
	err := &DecodeError{Index: index, Entry: raw, Reason: reason}
	if c.Policy == Strict {
		return err
	}
	if c.OnDrop != nil {
		c.OnDrop(err)
	}
	return nil
}

// splitEntries returns nil for a blank string.
func splitEntries(src string) []string {
	if strings.TrimSpace(src) == "" {
		return nil
	}
	raw := strings.Split(src, ",")
	for i := range raw {
		raw[i] = strings.TrimSpace(raw[i])
	}
	return raw
}

func parseStudentEntry(raw string) (entity.Class, string) {
	fields := strings.Split(raw, "-")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if len(fields) < 2 || len(fields) > 3 {
		return entity.Class{}, fmt.Sprintf("expected 2 or 3 fields, got %d", len(fields))
	}
	if fields[0] == "" {
		return entity.Class{}, "empty block"
	}
	subject, level, ok := entity.ParseSubjectLevel(fields[1])
	if !ok {
		return entity.Class{}, fmt.Sprintf("unknown subject %q", fields[1])
	}
	class := entity.Class{Block: fields[0], Subject: subject, Level: level}
	if len(fields) == 3 {
		if fields[2] == "" {
			return entity.Class{}, "empty teacher"
		}
		class.Teacher = fields[2]
	}
	return class, ""
}

func parseTeacherEntry(raw string) (string, int16, string) {
	idx := strings.LastIndexByte(raw, ' ')
	if idx < 0 {
		idx = strings.LastIndexByte(raw, '-')
	}
	if idx <= 0 {
		return "", 0, "missing grade"
	}
	block := strings.TrimSpace(strings.TrimRight(raw[:idx], " -"))
	if block == "" {
		return "", 0, "empty block"
	}
	// unsigned parse rejects a sign left over from "C1 -5"
	grade, err := strconv.ParseUint(raw[idx+1:], 10, 15)
	if err != nil {
		return "", 0, fmt.Sprintf("invalid grade %q", raw[idx+1:])
	}
	return block, int16(grade), ""
}
