package applicant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// Input is the wire form of a Record: categories arrive as labels (or bare
// codes) and indicators as booleans, 0/1 or yes/no.
type Input struct {
	Age            int     `json:"age"`
	Income         float64 `json:"income"`
	LoanAmount     float64 `json:"loan_amount"`
	CreditScore    int     `json:"credit_score"`
	MonthsEmployed int     `json:"months_employed"`
	NumCreditLines int     `json:"num_credit_lines"`
	InterestRate   float64 `json:"interest_rate"`
	LoanTerm       int     `json:"loan_term"`
	DTIRatio       float64 `json:"dti_ratio"`
	Education      Label   `json:"education"`
	EmploymentType Label   `json:"employment_type"`
	MaritalStatus  Label   `json:"marital_status"`
	HasMortgage    Flag    `json:"has_mortgage"`
	HasDependents  Flag    `json:"has_dependents"`
	LoanPurpose    Label   `json:"loan_purpose"`
	HasCoSigner    Flag    `json:"has_co_signer"`
}

// Record resolves the categorical labels. Every unknown label is reported.
func (in Input) Record() (Record, error) {
	rec := Record{
		Age:            in.Age,
		Income:         in.Income,
		LoanAmount:     in.LoanAmount,
		CreditScore:    in.CreditScore,
		MonthsEmployed: in.MonthsEmployed,
		NumCreditLines: in.NumCreditLines,
		InterestRate:   in.InterestRate,
		LoanTerm:       in.LoanTerm,
		DTIRatio:       in.DTIRatio,
		HasMortgage:    bool(in.HasMortgage),
		HasDependents:  bool(in.HasDependents),
		HasCoSigner:    bool(in.HasCoSigner),
	}

	var err, e error
	rec.Education, e = ParseEducation(string(in.Education))
	err = multierr.Append(err, e)
	rec.EmploymentType, e = ParseEmploymentType(string(in.EmploymentType))
	err = multierr.Append(err, e)
	rec.MaritalStatus, e = ParseMaritalStatus(string(in.MaritalStatus))
	err = multierr.Append(err, e)
	rec.LoanPurpose, e = ParseLoanPurpose(string(in.LoanPurpose))
	err = multierr.Append(err, e)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// InputOf is the inverse of Input.Record, used to pre-fill forms.
func InputOf(r Record) Input {
	return Input{
		Age:            r.Age,
		Income:         r.Income,
		LoanAmount:     r.LoanAmount,
		CreditScore:    r.CreditScore,
		MonthsEmployed: r.MonthsEmployed,
		NumCreditLines: r.NumCreditLines,
		InterestRate:   r.InterestRate,
		LoanTerm:       r.LoanTerm,
		DTIRatio:       r.DTIRatio,
		Education:      Label(r.Education.String()),
		EmploymentType: Label(r.EmploymentType.String()),
		MaritalStatus:  Label(r.MaritalStatus.String()),
		HasMortgage:    Flag(r.HasMortgage),
		HasDependents:  Flag(r.HasDependents),
		LoanPurpose:    Label(r.LoanPurpose.String()),
		HasCoSigner:    Flag(r.HasCoSigner),
	}
}

// Label is a category given either as a JSON string or a JSON number.
type Label string

func (l *Label) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = Label(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("category must be a string or a number: %s", b)
	}
	*l = Label(n.String())
	return nil
}

// Flag is a binary indicator.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	v, err := ParseFlag(s)
	if err != nil {
		return err
	}
	*f = Flag(v)
	return nil
}

// ParseFlag accepts 0/1, true/false, yes/no and on/off. Empty is false,
// which is what an unchecked HTML checkbox submits.
func ParseFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "off", "null":
		return false, nil
	case "1", "true", "yes", "on":
		return true, nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && (v == 0 || v == 1) {
		return v == 1, nil
	}
	return false, fmt.Errorf("%w: indicator %q is not 0 or 1", ErrOutOfRange, s)
}
