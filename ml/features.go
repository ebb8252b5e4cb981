package ml

import (
	"fmt"
	"strings"

	"loanscore/applicant"
)

// InterestConvention selects how the loan amount x interest rate interaction
// column is computed. It must match the convention used when the artifact
// was trained.
type InterestConvention int

const (
	InterestNone InterestConvention = iota
	// InterestRaw multiplies by the rate in percent: 20000 x 10.5 = 210000.
	InterestRaw
	// InterestFraction multiplies by the rate as a fraction: 20000 x 0.105 = 2100.
	InterestFraction
)

const InterestValueColumn = "interest_value"

func ParseInterestConvention(s string) (InterestConvention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off":
		return InterestNone, nil
	case "raw", "percent", "":
		return InterestRaw, nil
	case "fraction":
		return InterestFraction, nil
	}
	return InterestNone, fmt.Errorf("unknown interest value convention %q", s)
}

func (c InterestConvention) String() string {
	switch c {
	case InterestRaw:
		return "raw"
	case InterestFraction:
		return "fraction"
	default:
		return "none"
	}
}

func InterestValue(loanAmount, interestRate float64, c InterestConvention) float64 {
	switch c {
	case InterestRaw:
		return loanAmount * interestRate
	case InterestFraction:
		return loanAmount * interestRate / 100
	default:
		return 0
	}
}

var baseColumns = []string{
	"Age",
	"Income",
	"LoanAmount",
	"CreditScore",
	"MonthsEmployed",
	"NumCreditLines",
	"InterestRate",
	"LoanTerm",
	"DTIRatio",
	"Education",
	"EmploymentType",
	"MaritalStatus",
	"HasMortgage",
	"HasDependents",
	"LoanPurpose",
	"HasCoSigner",
}

// Schema is the column layout the artifact was trained against.
type Schema struct {
	interest InterestConvention
}

func NewSchema(interest InterestConvention) Schema {
	return Schema{interest: interest}
}

func DefaultSchema() Schema {
	return NewSchema(InterestRaw)
}

func (s Schema) Interest() InterestConvention {
	return s.interest
}

func (s Schema) Columns() []string {
	cols := make([]string, 0, len(baseColumns)+1)
	cols = append(cols, baseColumns...)
	if s.interest != InterestNone {
		cols = append(cols, InterestValueColumn)
	}
	return cols
}

func (s Schema) Arity() int {
	if s.interest == InterestNone {
		return len(baseColumns)
	}
	return len(baseColumns) + 1
}

// Encode lays the record out in column order. The interaction term, when the
// schema has one, is always last.
func (s Schema) Encode(r applicant.Record) []float64 {
	vector := make([]float64, 0, s.Arity())
	vector = append(vector,
		float64(r.Age),
		r.Income,
		r.LoanAmount,
		float64(r.CreditScore),
		float64(r.MonthsEmployed),
		float64(r.NumCreditLines),
		r.InterestRate,
		float64(r.LoanTerm),
		r.DTIRatio,
		float64(r.Education.Code()),
		float64(r.EmploymentType.Code()),
		float64(r.MaritalStatus.Code()),
		indicator(r.HasMortgage),
		indicator(r.HasDependents),
		float64(r.LoanPurpose.Code()),
		indicator(r.HasCoSigner),
	)
	if s.interest != InterestNone {
		vector = append(vector, InterestValue(r.LoanAmount, r.InterestRate, s.interest))
	}
	return vector
}

// Verify compares the schema with the column names stored in an artifact.
func (s Schema) Verify(names []string) error {
	cols := s.Columns()
	if len(names) != len(cols) {
		return fmt.Errorf("%w: artifact has %d columns, encoder produces %d", ErrSchemaMismatch, len(names), len(cols))
	}
	for i, name := range names {
		if !strings.EqualFold(name, cols[i]) {
			return fmt.Errorf("%w: column %d is %q in the artifact, %q in the encoder", ErrSchemaMismatch, i, name, cols[i])
		}
	}
	return nil
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
