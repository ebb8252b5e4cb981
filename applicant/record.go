// Package applicant holds the loan applicant record and its categorical
// encodings.
package applicant

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrOutOfRange      = errors.New("value out of range")
)

const (
	MinAge         = 18
	MaxAge         = 100
	MinCreditScore = 300
	MaxCreditScore = 850
	MinLoanTerm    = 6
)

// Record is a single applicant as submitted through one of the input
// surfaces. It lives for one request.
type Record struct {
	Age            int
	Income         float64
	LoanAmount     float64
	CreditScore    int
	MonthsEmployed int
	NumCreditLines int
	InterestRate   float64 // percent, 10.5 means 10.5%
	LoanTerm       int     // months
	DTIRatio       float64
	Education      Education
	EmploymentType EmploymentType
	MaritalStatus  MaritalStatus
	HasMortgage    bool
	HasDependents  bool
	LoanPurpose    LoanPurpose
	HasCoSigner    bool
}

// Default returns the values the form is pre-filled with.
func Default() Record {
	return Record{
		Age:            30,
		Income:         50000,
		LoanAmount:     20000,
		CreditScore:    650,
		MonthsEmployed: 24,
		NumCreditLines: 2,
		InterestRate:   10.5,
		LoanTerm:       36,
		DTIRatio:       0.3,
		Education:      Bachelor,
		EmploymentType: FullTime,
		MaritalStatus:  Single,
		LoanPurpose:    PurposePersonal,
	}
}

// Validate checks every field against its bounds and reports all failures
// at once.
func (r Record) Validate() error {
	var err error
	err = multierr.Append(err, intBetween("age", r.Age, MinAge, MaxAge))
	err = multierr.Append(err, nonNegative("income", r.Income))
	err = multierr.Append(err, nonNegative("loan amount", r.LoanAmount))
	err = multierr.Append(err, intBetween("credit score", r.CreditScore, MinCreditScore, MaxCreditScore))
	err = multierr.Append(err, intAtLeast("months employed", r.MonthsEmployed, 0))
	err = multierr.Append(err, intAtLeast("credit lines", r.NumCreditLines, 0))
	err = multierr.Append(err, nonNegative("interest rate", r.InterestRate))
	err = multierr.Append(err, intAtLeast("loan term", r.LoanTerm, MinLoanTerm))
	err = multierr.Append(err, nonNegative("dti ratio", r.DTIRatio))
	if !r.Education.Valid() {
		err = multierr.Append(err, fmt.Errorf("%w: education code %d", ErrUnknownCategory, int(r.Education)))
	}
	if !r.EmploymentType.Valid() {
		err = multierr.Append(err, fmt.Errorf("%w: employment type code %d", ErrUnknownCategory, int(r.EmploymentType)))
	}
	if !r.MaritalStatus.Valid() {
		err = multierr.Append(err, fmt.Errorf("%w: marital status code %d", ErrUnknownCategory, int(r.MaritalStatus)))
	}
	if !r.LoanPurpose.Valid() {
		err = multierr.Append(err, fmt.Errorf("%w: loan purpose code %d", ErrUnknownCategory, int(r.LoanPurpose)))
	}
	return err
}

func intBetween(field string, v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("%w: %s %d not in [%d, %d]", ErrOutOfRange, field, v, lo, hi)
	}
	return nil
}

func intAtLeast(field string, v, lo int) error {
	if v < lo {
		return fmt.Errorf("%w: %s %d below %d", ErrOutOfRange, field, v, lo)
	}
	return nil
}

func nonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s is not a finite number", ErrOutOfRange, field)
	}
	if v < 0 {
		return fmt.Errorf("%w: %s %g is negative", ErrOutOfRange, field, v)
	}
	return nil
}
