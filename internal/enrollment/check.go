package enrollment

import (
	"fmt"

	"schoolrecords/internal/entity"
)

// CheckStudent returns an error when classes would not decode back to
// themselves from the student format, e.g. a teacher name containing "-".
func CheckStudent(classes []entity.Class) error {
	back, err := New(Strict).DecodeStudent(EncodeStudent(classes), 0)
	if err != nil {
		return err
	}
	if len(back) != len(classes) {
		return fmt.Errorf("%w: %d classes encoded, %d decoded", ErrMalformedEntry, len(classes), len(back))
	}
	for i, c := range classes {
		b := back[i]
		if b.Block != c.Block || b.Subject != c.Subject || b.Level != c.Level || b.Teacher != c.Teacher {
			return &DecodeError{Index: i, Entry: EncodeStudent(classes[i : i+1]), Reason: "does not survive encoding"}
		}
	}
	return nil
}

// CheckTeacher is CheckStudent for the teacher format, which keeps only block
// and grade.
func CheckTeacher(classes []entity.Class) error {
	back, err := New(Strict).DecodeTeacher(EncodeTeacher(classes), entity.Economics, "")
	if err != nil {
		return err
	}
	if len(back) != len(classes) {
		return fmt.Errorf("%w: %d classes encoded, %d decoded", ErrMalformedEntry, len(classes), len(back))
	}
	for i, c := range classes {
		if back[i].Block != c.Block || back[i].Grade != c.Grade {
			return &DecodeError{Index: i, Entry: EncodeTeacher(classes[i : i+1]), Reason: "does not survive encoding"}
		}
	}
	return nil
}
