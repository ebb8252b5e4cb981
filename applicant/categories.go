package applicant

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Option is one selectable value of a categorical field.
type Option struct {
	Label string `json:"label"`
	Code  int    `json:"code"`
}

type Education int

const (
	HighSchool Education = 0
	Bachelor   Education = 1
	Master     Education = 2
	PhD        Education = 3
)

var educationLabels = []string{"High School", "Bachelor", "Master", "PhD"}

func (e Education) Code() int {
	switch e {
	case HighSchool:
		return 0
	case Bachelor:
		return 1
	case Master:
		return 2
	case PhD:
		return 3
	}
	panic(fmt.Sprintf("applicant: invalid education %d", int(e)))
}

func (e Education) Valid() bool   { return e >= HighSchool && e <= PhD }
func (e Education) String() string { return labelOf(educationLabels, int(e)) }

func ParseEducation(s string) (Education, error) {
	code, err := parseCategory("education", educationLabels, map[string]int{
		"bachelors": int(Bachelor),
		"masters":   int(Master),
		"doctorate": int(PhD),
	}, s)
	return Education(code), err
}

func EducationOptions() []Option { return options(educationLabels) }

type EmploymentType int

const (
	FullTime     EmploymentType = 0
	PartTime     EmploymentType = 1
	SelfEmployed EmploymentType = 2
	Unemployed   EmploymentType = 3
)

var employmentLabels = []string{"Full-time", "Part-time", "Self-employed", "Unemployed"}

func (e EmploymentType) Code() int {
	switch e {
	case FullTime:
		return 0
	case PartTime:
		return 1
	case SelfEmployed:
		return 2
	case Unemployed:
		return 3
	}
	panic(fmt.Sprintf("applicant: invalid employment type %d", int(e)))
}

func (e EmploymentType) Valid() bool   { return e >= FullTime && e <= Unemployed }
func (e EmploymentType) String() string { return labelOf(employmentLabels, int(e)) }

func ParseEmploymentType(s string) (EmploymentType, error) {
	code, err := parseCategory("employment type", employmentLabels, nil, s)
	return EmploymentType(code), err
}

func EmploymentTypeOptions() []Option { return options(employmentLabels) }

type MaritalStatus int

const (
	Single   MaritalStatus = 0
	Married  MaritalStatus = 1
	Divorced MaritalStatus = 2
)

var maritalLabels = []string{"Single", "Married", "Divorced"}

func (m MaritalStatus) Code() int {
	switch m {
	case Single:
		return 0
	case Married:
		return 1
	case Divorced:
		return 2
	}
	panic(fmt.Sprintf("applicant: invalid marital status %d", int(m)))
}

func (m MaritalStatus) Valid() bool   { return m >= Single && m <= Divorced }
func (m MaritalStatus) String() string { return labelOf(maritalLabels, int(m)) }

func ParseMaritalStatus(s string) (MaritalStatus, error) {
	code, err := parseCategory("marital status", maritalLabels, nil, s)
	return MaritalStatus(code), err
}

func MaritalStatusOptions() []Option { return options(maritalLabels) }

type LoanPurpose int

const (
	PurposeAuto      LoanPurpose = 0
	PurposeBusiness  LoanPurpose = 1
	PurposeEducation LoanPurpose = 2
	PurposeHome      LoanPurpose = 3
	PurposePersonal  LoanPurpose = 4
)

var purposeLabels = []string{"Auto", "Business", "Education", "Home", "Personal"}

func (p LoanPurpose) Code() int {
	switch p {
	case PurposeAuto:
		return 0
	case PurposeBusiness:
		return 1
	case PurposeEducation:
		return 2
	case PurposeHome:
		return 3
	case PurposePersonal:
		return 4
	}
	panic(fmt.Sprintf("applicant: invalid loan purpose %d", int(p)))
}

func (p LoanPurpose) Valid() bool   { return p >= PurposeAuto && p <= PurposePersonal }
func (p LoanPurpose) String() string { return labelOf(purposeLabels, int(p)) }

// ParseLoanPurpose maps "Other" onto Personal, the catch-all bucket the
// deployed artifact was trained with.
func ParseLoanPurpose(s string) (LoanPurpose, error) {
	code, err := parseCategory("loan purpose", purposeLabels, map[string]int{
		"other": int(PurposePersonal),
		"car":   int(PurposeAuto),
	}, s)
	return LoanPurpose(code), err
}

func LoanPurposeOptions() []Option { return options(purposeLabels) }

// parseCategory accepts a display label (case, spacing and punctuation
// insensitive), one of the aliases, or the bare integer code.
func parseCategory(field string, labels []string, aliases map[string]int, s string) (int, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is empty", ErrUnknownCategory, field)
	}
	if code, err := strconv.Atoi(raw); err == nil {
		if code < 0 || code >= len(labels) {
			return 0, fmt.Errorf("%w: %s code %d", ErrUnknownCategory, field, code)
		}
		return code, nil
	}
	key := normalizeLabel(raw)
	for code, label := range labels {
		if normalizeLabel(label) == key {
			return code, nil
		}
	}
	if code, ok := aliases[key]; ok {
		return code, nil
	}
	return 0, fmt.Errorf("%w: %s %q", ErrUnknownCategory, field, raw)
}

func normalizeLabel(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func labelOf(labels []string, code int) string {
	if code < 0 || code >= len(labels) {
		return strconv.Itoa(code)
	}
	return labels[code]
}

func options(labels []string) []Option {
	opts := make([]Option, len(labels))
	for i, label := range labels {
		opts[i] = Option{Label: label, Code: i}
	}
	return opts
}
