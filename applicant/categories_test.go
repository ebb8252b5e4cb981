package applicant

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryOfferedOptionParses(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		parse func(string) (int, error)
	}{
		{"education", EducationOptions(), func(s string) (int, error) { v, err := ParseEducation(s); return v.Code(), err }},
		{"employment", EmploymentTypeOptions(), func(s string) (int, error) { v, err := ParseEmploymentType(s); return v.Code(), err }},
		{"marital", MaritalStatusOptions(), func(s string) (int, error) { v, err := ParseMaritalStatus(s); return v.Code(), err }},
		{"purpose", LoanPurposeOptions(), func(s string) (int, error) { v, err := ParseLoanPurpose(s); return v.Code(), err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotEmpty(t, tt.opts)
			for _, opt := range tt.opts {
				code, err := tt.parse(opt.Label)
				require.NoError(t, err, opt.Label)
				assert.Equal(t, opt.Code, code, opt.Label)
			}
		})
	}
}

func TestEducationCodes(t *testing.T) {
	want := map[string]int{"High School": 0, "Bachelor": 1, "Master": 2, "PhD": 3}
	for label, code := range want {
		e, err := ParseEducation(label)
		require.NoError(t, err)
		assert.Equal(t, code, e.Code())
		assert.Equal(t, label, e.String())
	}
}

func TestParseCategoryLenient(t *testing.T) {
	e, err := ParseEducation("  bachelor's ")
	require.NoError(t, err)
	assert.Equal(t, Bachelor, e)

	et, err := ParseEmploymentType("full time")
	require.NoError(t, err)
	assert.Equal(t, FullTime, et)

	m, err := ParseMaritalStatus("2")
	require.NoError(t, err)
	assert.Equal(t, Divorced, m)

	p, err := ParseLoanPurpose("Other")
	require.NoError(t, err)
	assert.Equal(t, PurposePersonal, p)
}

func TestParseCategoryUnknown(t *testing.T) {
	for _, s := range []string{"", "Kindergarten", "4", "-1"} {
		_, err := ParseEducation(s)
		require.Error(t, err, s)
		assert.True(t, errors.Is(err, ErrUnknownCategory), s)
	}
}

func TestCodePanicsOnInvalidValue(t *testing.T) {
	assert.Panics(t, func() { _ = Education(7).Code() })
	assert.Equal(t, "7", Education(7).String())
}
