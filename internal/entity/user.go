package entity

import "strings"

type Gender bool

const (
	Male   Gender = true
	Female Gender = false
)

func (g Gender) String() string {
	if g == Male {
		return "male"
	}
	return "female"
}

// ParseGender accepts "male"/"female" and their one-letter forms, case-insensitive.
func ParseGender(s string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return Male, true
	case "female", "f":
		return Female, true
	}
	return Female, false
}

// Kind is the role discriminator stored in users.role.
type Kind string

const (
	KindStudent Kind = "student"
	KindTeacher Kind = "teacher"
)

// Enrollment is the role-specific payload of a Person. It is implemented by
// Student and Teacher only.
type Enrollment interface {
	Kind() Kind
	enrollment()
}

type Student struct {
	Classes []Class `json:"classes"`
	Grade   int16   `json:"grade"`
	Section rune    `json:"section"`
}

func (Student) Kind() Kind  { return KindStudent }
func (Student) enrollment() {}

type Teacher struct {
	Subject Subject `json:"subject"`
	Classes []Class `json:"classes"`
	HOD     bool    `json:"hod"`
}

func (Teacher) Kind() Kind  { return KindTeacher }
func (Teacher) enrollment() {}

// Person is a transient DTO; it has no identity until persisted.
type Person struct {
	FirstName  string
	LastName   string
	Gender     Gender
	Enrollment Enrollment
}

// Username derives the login name. It is not unique: two people with the
// same first and last name share it.
func (p Person) Username() string {
	return Username(p.FirstName, p.LastName)
}

func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName)
}

func Username(firstName, lastName string) string {
	return strings.ToLower(strings.TrimSpace(firstName)) + "." + strings.ToLower(strings.TrimSpace(lastName))
}
