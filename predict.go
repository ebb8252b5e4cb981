package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"loanscore/applicant"
	"loanscore/scoring"
)

const (
	formatText = "text"
	formatJSON = "json"
)

var (
	defaults = applicant.Default()

	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "Output format [text, json]",
		Value: formatText,
	}

	ageFlag            = &cli.IntFlag{Name: "age", Usage: "Applicant age in years", Value: defaults.Age}
	incomeFlag         = &cli.FloatFlag{Name: "income", Usage: "Annual income", Value: defaults.Income}
	loanAmountFlag     = &cli.FloatFlag{Name: "loan-amount", Usage: "Requested loan amount", Value: defaults.LoanAmount}
	creditScoreFlag    = &cli.IntFlag{Name: "credit-score", Usage: "Credit score", Value: defaults.CreditScore}
	monthsEmployedFlag = &cli.IntFlag{Name: "months-employed", Usage: "Months in current employment", Value: defaults.MonthsEmployed}
	creditLinesFlag    = &cli.IntFlag{Name: "num-credit-lines", Usage: "Open credit lines", Value: defaults.NumCreditLines}
	interestRateFlag   = &cli.FloatFlag{Name: "interest-rate", Usage: "Interest rate in percent", Value: defaults.InterestRate}
	loanTermFlag       = &cli.IntFlag{Name: "loan-term", Usage: "Loan term in months", Value: defaults.LoanTerm}
	dtiRatioFlag       = &cli.FloatFlag{Name: "dti-ratio", Usage: "Debt-to-income ratio", Value: defaults.DTIRatio}
	educationFlag      = &cli.StringFlag{Name: "education", Usage: categoryUsage(applicant.EducationOptions()), Value: defaults.Education.String()}
	employmentFlag     = &cli.StringFlag{Name: "employment-type", Usage: categoryUsage(applicant.EmploymentTypeOptions()), Value: defaults.EmploymentType.String()}
	maritalFlag        = &cli.StringFlag{Name: "marital-status", Usage: categoryUsage(applicant.MaritalStatusOptions()), Value: defaults.MaritalStatus.String()}
	purposeFlag        = &cli.StringFlag{Name: "loan-purpose", Usage: categoryUsage(applicant.LoanPurposeOptions()), Value: defaults.LoanPurpose.String()}
	mortgageFlag       = &cli.BoolFlag{Name: "has-mortgage", Usage: "Applicant has a mortgage"}
	dependentsFlag     = &cli.BoolFlag{Name: "has-dependents", Usage: "Applicant has dependents"}
	coSignerFlag       = &cli.BoolFlag{Name: "has-co-signer", Usage: "Loan has a co-signer"}

	predictCmd = &cli.Command{
		Name:    "predict",
		Aliases: []string{"p"},
		Usage:   "Score a single applicant from the command line",
		UsageText: `loanscore predict --age 45 --credit-score 720 --loan-purpose Home
   loanscore predict --dti-ratio 0.8 --format json`,
		Action: cmdPredict,
		Flags: []cli.Flag{
			modelFlag,
			modelTypeFlag,
			formatFlag,
			ageFlag,
			incomeFlag,
			loanAmountFlag,
			creditScoreFlag,
			monthsEmployedFlag,
			creditLinesFlag,
			interestRateFlag,
			loanTermFlag,
			dtiRatioFlag,
			educationFlag,
			employmentFlag,
			maritalFlag,
			purposeFlag,
			mortgageFlag,
			dependentsFlag,
			coSignerFlag,
		},
	}

	schemaCmd = &cli.Command{
		Name:   "schema",
		Usage:  "Print the feature columns in model order",
		Action: cmdSchema,
		Flags: []cli.Flag{
			formatFlag,
		},
	}
)

func categoryUsage(opts []applicant.Option) string {
	labels := make([]string, len(opts))
	for i, opt := range opts {
		labels[i] = opt.Label
	}
	return fmt.Sprintf("One of [%s]", strings.Join(labels, ", "))
}

func cmdPredict(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	defer logger.Sync()

	service, err := newService(cfg, logger)
	if err != nil {
		return err
	}

	rec, err := inputFromFlags(cmd).Record()
	if err != nil {
		return err
	}
	result, err := service.Score(ctx, rec)
	if err != nil {
		return err
	}
	return printResult(cmd.Root().Writer, cmd.String(formatFlag.Name), result)
}

func inputFromFlags(cmd *cli.Command) applicant.Input {
	return applicant.Input{
		Age:            cmd.Int(ageFlag.Name),
		Income:         cmd.Float(incomeFlag.Name),
		LoanAmount:     cmd.Float(loanAmountFlag.Name),
		CreditScore:    cmd.Int(creditScoreFlag.Name),
		MonthsEmployed: cmd.Int(monthsEmployedFlag.Name),
		NumCreditLines: cmd.Int(creditLinesFlag.Name),
		InterestRate:   cmd.Float(interestRateFlag.Name),
		LoanTerm:       cmd.Int(loanTermFlag.Name),
		DTIRatio:       cmd.Float(dtiRatioFlag.Name),
		Education:      applicant.Label(cmd.String(educationFlag.Name)),
		EmploymentType: applicant.Label(cmd.String(employmentFlag.Name)),
		MaritalStatus:  applicant.Label(cmd.String(maritalFlag.Name)),
		LoanPurpose:    applicant.Label(cmd.String(purposeFlag.Name)),
		HasMortgage:    applicant.Flag(cmd.Bool(mortgageFlag.Name)),
		HasDependents:  applicant.Flag(cmd.Bool(dependentsFlag.Name)),
		HasCoSigner:    applicant.Flag(cmd.Bool(coSignerFlag.Name)),
	}
}

func printResult(w io.Writer, format string, result scoring.Result) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"label":       result.Prediction.Label,
			"verdict":     result.Verdict(),
			"probability": result.Prediction.Probability,
			"columns":     result.Columns,
			"features":    result.Features,
		})
	}
	fmt.Fprintf(w, "Prediction: %s\n", result.Verdict())
	fmt.Fprintf(w, "Probability of Default: %.2f%%\n", result.Prediction.Probability*100)
	return nil
}

func cmdSchema(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	schema, err := cfg.Schema()
	if err != nil {
		return err
	}

	if cmd.String(formatFlag.Name) == formatJSON {
		enc := json.NewEncoder(cmd.Root().Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(schema.Columns())
	}
	for i, col := range schema.Columns() {
		fmt.Fprintf(cmd.Root().Writer, "%2d  %s\n", i, col)
	}
	return nil
}
