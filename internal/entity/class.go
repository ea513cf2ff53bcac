package entity

import "strings"

type Subject string

const (
	Economics  Subject = "Economics"
	Business   Subject = "Business"
	Math       Subject = "Math"
	Physics    Subject = "Physics"
	Chemistry  Subject = "Chemistry"
	Biology    Subject = "Biology"
	CompSci    Subject = "CompSci"
	ICT        Subject = "ICT"
	ITGS       Subject = "ITGS"
	Psychology Subject = "Psychology"
	English    Subject = "English"
	ESL        Subject = "ESL"
	Spanish    Subject = "Spanish"
	French     Subject = "French"
	German     Subject = "German"
	Hindi      Subject = "Hindi"
	Art        Subject = "Art"
	Music      Subject = "Music"
)

var subjects = []Subject{
	Economics, Business, Math,
	Physics, Chemistry, Biology,
	CompSci, ICT, ITGS,
	Psychology,
	English, ESL,
	Spanish, French, German, Hindi,
	Art, Music,
}

// Subjects returns the closed set of school subjects.
func Subjects() []Subject {
	out := make([]Subject, len(subjects))
	copy(out, subjects)
	return out
}

// ParseSubject is exact and case-sensitive.
func ParseSubject(s string) (Subject, bool) {
	for _, subj := range subjects {
		if string(subj) == s {
			return subj, true
		}
	}
	return "", false
}

func (s Subject) String() string { return string(s) }

// Level is the optional course level written after a subject name.
type Level string

const (
	LevelNone Level = ""
	LevelSL   Level = "SL"
	LevelHL   Level = "HL"
)

// ParseSubjectLevel parses "English" or "English SL".
func ParseSubjectLevel(s string) (Subject, Level, bool) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		subj, ok := ParseSubject(fields[0])
		return subj, LevelNone, ok
	case 2:
		subj, ok := ParseSubject(fields[0])
		if !ok {
			return "", LevelNone, false
		}
		switch Level(fields[1]) {
		case LevelSL, LevelHL:
			return subj, Level(fields[1]), true
		}
	}
	return "", LevelNone, false
}

// Class exists only inside a Student or Teacher payload.
type Class struct {
	Subject Subject `json:"subject"`
	Level   Level   `json:"level,omitempty"`
	Teacher string  `json:"teacher"`
	Block   string  `json:"block"`
	Grade   int16   `json:"grade"`
}

// SubjectLabel renders the subject with its level, e.g. "Math HL".
func (c Class) SubjectLabel() string {
	if c.Level == LevelNone {
		return string(c.Subject)
	}
	return string(c.Subject) + " " + string(c.Level)
}
