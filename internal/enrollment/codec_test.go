package enrollment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolrecords/internal/entity"
)

func TestStudentRoundTrip(t *testing.T) {
	src := "C1 - English - Smith, C2 - Spanish - Lee"
	codec := New(Strict)

	classes, err := codec.DecodeStudent(src, 11)
	require.NoError(t, err)
	require.Len(t, classes, 2)

	assert.Equal(t, entity.Class{Block: "C1", Subject: entity.English, Teacher: "Smith", Grade: 11}, classes[0])
	assert.Equal(t, entity.Class{Block: "C2", Subject: entity.Spanish, Teacher: "Lee", Grade: 11}, classes[1])
	assert.Equal(t, src, EncodeStudent(classes))
}

func TestStudentLevelsWithoutTeacher(t *testing.T) {
	src := "C1 - English SL, C2 - Math HL"

	classes, err := New(Strict).DecodeStudent(src, 11)
	require.NoError(t, err)
	require.Len(t, classes, 2)

	assert.Equal(t, "C1", classes[0].Block)
	assert.Equal(t, entity.English, classes[0].Subject)
	assert.Equal(t, entity.LevelSL, classes[0].Level)
	assert.Empty(t, classes[0].Teacher)
	assert.Equal(t, entity.Math, classes[1].Subject)
	assert.Equal(t, entity.LevelHL, classes[1].Level)

	assert.Equal(t, src, EncodeStudent(classes))
}

func TestTeacherRoundTrip(t *testing.T) {
	src := "C1 11, C3 12, D2 9"

	classes, err := New(Strict).DecodeTeacher(src, entity.Economics, "Hari Prasad")
	require.NoError(t, err)
	require.Len(t, classes, 3)

	for _, c := range classes {
		assert.Equal(t, entity.Economics, c.Subject)
		assert.Equal(t, "Hari Prasad", c.Teacher)
	}
	assert.Equal(t, "C3", classes[1].Block)
	assert.Equal(t, int16(12), classes[1].Grade)
	assert.Equal(t, src, EncodeTeacher(classes))
}

func TestTeacherEntryAcceptsDashSeparator(t *testing.T) {
	classes, err := New(Strict).DecodeTeacher("C1 - 11", entity.Physics, "Ann Lee")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "C1", classes[0].Block)
	assert.Equal(t, int16(11), classes[0].Grade)

	classes, err = New(Strict).DecodeTeacher("C1-11", entity.Physics, "Ann Lee")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "C1", classes[0].Block)
	assert.Equal(t, int16(11), classes[0].Grade)
}

func TestTeacherEntrySignedGradeIsMalformed(t *testing.T) {
	for _, src := range []string{"C1 -5", "C1 +5", "C1 - -5"} {
		_, err := New(Strict).DecodeTeacher(src, entity.Physics, "Ann Lee")
		assert.ErrorIs(t, err, ErrMalformedEntry, src)
	}
}

func TestEmptyInputDecodesToEmptyList(t *testing.T) {
	for _, src := range []string{"", "   "} {
		classes, err := New(Strict).DecodeStudent(src, 10)
		require.NoError(t, err)
		assert.Empty(t, classes)

		classes, err = New(Strict).DecodeTeacher(src, entity.Art, "A B")
		require.NoError(t, err)
		assert.Empty(t, classes)
	}
	assert.Equal(t, "", EncodeStudent(nil))
	assert.Equal(t, "", EncodeTeacher(nil))
}

func TestPermissiveDropsOnlyMalformedEntries(t *testing.T) {
	var dropped []*DecodeError
	codec := &Codec{Policy: Permissive, OnDrop: func(err *DecodeError) { dropped = append(dropped, err) }}

	classes, err := codec.DecodeStudent("C1 - English - Smith, C2 - Klingon - Worf, C3 - Art - Vega", 12)
	require.NoError(t, err)
	require.Len(t, classes, 2)
	assert.Equal(t, "C1", classes[0].Block)
	assert.Equal(t, "C3", classes[1].Block)

	require.Len(t, dropped, 1)
	assert.Equal(t, 1, dropped[0].Index)
	assert.Contains(t, dropped[0].Reason, "Klingon")
}

func TestStrictFailsWholeDecode(t *testing.T) {
	cases := map[string]string{
		"unknown subject": "C1 - English - Smith, C2 - Klingon - Worf",
		"missing fields":  "C1 - English - Smith, C2",
		"too many fields": "C1 - English - Smith - Extra",
		"empty block":     " - English - Smith",
		"bad level":       "C1 - English XL - Smith",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			classes, err := New(Strict).DecodeStudent(src, 11)
			require.Error(t, err)
			assert.Nil(t, classes)
			assert.True(t, errors.Is(err, ErrMalformedEntry))

			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
		})
	}
}

func TestTeacherMalformedEntries(t *testing.T) {
	src := "Wiggle Wiggle Wiggle YEAH"

	_, err := New(Strict).DecodeTeacher(src, entity.Economics, "Hari Prasad")
	require.ErrorIs(t, err, ErrMalformedEntry)

	classes, err := New(Permissive).DecodeTeacher("C1 11, C2 eleven", entity.Economics, "Hari Prasad")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "C1", classes[0].Block)
}

func TestTeacherUnknownSubjectRejectsEveryEntry(t *testing.T) {
	classes, err := New(Permissive).DecodeTeacher("C1 11, C2 12", entity.Subject("Alchemy"), "Hari Prasad")
	require.NoError(t, err)
	assert.Empty(t, classes)

	_, err = New(Strict).DecodeTeacher("C1 11", entity.Subject("Alchemy"), "Hari Prasad")
	require.ErrorIs(t, err, ErrMalformedEntry)
}

func TestStudentEncoderIsLossyForTeacherClasses(t *testing.T) {
	classes, err := New(Strict).DecodeTeacher("C1 11", entity.Economics, "Hari Prasad")
	require.NoError(t, err)

	// grade is not part of the student format
	back, err := New(Strict).DecodeStudent(EncodeStudent(classes), 0)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.NotEqual(t, classes[0].Grade, back[0].Grade)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, Strict, p)

	p, err = ParsePolicy("Permissive")
	require.NoError(t, err)
	assert.Equal(t, Permissive, p)

	_, err = ParsePolicy("lenient")
	assert.Error(t, err)
}

func TestCheckStudent(t *testing.T) {
	ok := []entity.Class{{Block: "C1", Subject: entity.English, Teacher: "Smith"}}
	assert.NoError(t, CheckStudent(ok))

	dashed := []entity.Class{{Block: "C1", Subject: entity.English, Teacher: "Mary-Jane Smith"}}
	assert.ErrorIs(t, CheckStudent(dashed), ErrMalformedEntry)

	comma := []entity.Class{{Block: "C1, C2", Subject: entity.English}}
	assert.ErrorIs(t, CheckStudent(comma), ErrMalformedEntry)

	unknown := []entity.Class{{Block: "C1", Subject: entity.Subject("Alchemy")}}
	assert.ErrorIs(t, CheckStudent(unknown), ErrMalformedEntry)
}

func TestCheckTeacher(t *testing.T) {
	assert.NoError(t, CheckTeacher([]entity.Class{{Block: "A-1", Grade: 11}, {Block: "Room 4", Grade: 9}}))
	assert.ErrorIs(t, CheckTeacher([]entity.Class{{Block: "", Grade: 11}}), ErrMalformedEntry)
	assert.ErrorIs(t, CheckTeacher([]entity.Class{{Block: "C1,C2", Grade: 11}}), ErrMalformedEntry)
}
