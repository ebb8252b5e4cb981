package http

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"loanscore/applicant"
	"loanscore/ml"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// formView 表单页面数据
type formView struct {
	Input      applicant.Input
	Education  []optionView
	Employment []optionView
	Marital    []optionView
	Purpose    []optionView
	Bounds     boundsView
	Result     *resultView
	Error      string
}

type optionView struct {
	Label    string
	Selected bool
}

type boundsView struct {
	MinAge, MaxAge                 int
	MinCreditScore, MaxCreditScore int
	MinLoanTerm                    int
}

// resultView 预测结果展示
type resultView struct {
	Verdict       string
	Default       bool
	Probability   string
	InterestValue string
}

func RegisterFormHandlers(mux *http.ServeMux, h *handler) {
	mux.HandleFunc("GET /{$}", h.handleForm)
	mux.HandleFunc("POST /predict", h.handleFormPredict)
}

func (h *handler) handleForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, http.StatusOK, newFormView(applicant.InputOf(applicant.Default())))
}

func (h *handler) handleFormPredict(w http.ResponseWriter, r *http.Request) {
	input, err := inputFromForm(r)
	if err != nil {
		status := errorStatus(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		view := newFormView(input)
		view.Error = "Invalid input: " + err.Error()
		h.renderForm(w, status, view)
		return
	}
	view := newFormView(input)

	rec, err := input.Record()
	if err != nil {
		view.Error = "Invalid input: " + err.Error()
		h.renderForm(w, http.StatusBadRequest, view)
		return
	}

	result, err := h.scorer.Score(r.Context(), rec)
	if err != nil {
		status := errorStatus(err)
		if status == http.StatusBadRequest {
			view.Error = "Invalid input: " + err.Error()
		} else {
			h.logger.Error("prediction failed",
				zap.String("request_id", GetRequestID(r.Context())),
				zap.Error(err))
			view.Error = "Error during prediction. Please try again later."
		}
		h.renderForm(w, status, view)
		return
	}

	printer := printerFor(r)
	view.Result = &resultView{
		Verdict:     result.Verdict(),
		Default:     result.Prediction.Default(),
		Probability: formatPercent(printer, result.Prediction.Probability),
	}
	if h.scorer.Schema().Interest() != ml.InterestNone {
		view.Result.InterestValue = formatAmount(printer, result.Features[len(result.Features)-1])
	}
	h.renderForm(w, http.StatusOK, view)
}

func (h *handler) renderForm(w http.ResponseWriter, status int, view formView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, view); err != nil {
		h.logger.Error("rendering form", zap.Error(err))
	}
}

func newFormView(input applicant.Input) formView {
	return formView{
		Input:      input,
		Education:  optionViews(applicant.EducationOptions(), string(input.Education)),
		Employment: optionViews(applicant.EmploymentTypeOptions(), string(input.EmploymentType)),
		Marital:    optionViews(applicant.MaritalStatusOptions(), string(input.MaritalStatus)),
		Purpose:    optionViews(applicant.LoanPurposeOptions(), string(input.LoanPurpose)),
		Bounds: boundsView{
			MinAge:         applicant.MinAge,
			MaxAge:         applicant.MaxAge,
			MinCreditScore: applicant.MinCreditScore,
			MaxCreditScore: applicant.MaxCreditScore,
			MinLoanTerm:    applicant.MinLoanTerm,
		},
	}
}

func optionViews(opts []applicant.Option, selected string) []optionView {
	views := make([]optionView, len(opts))
	for i, opt := range opts {
		views[i] = optionView{Label: opt.Label, Selected: opt.Label == selected}
	}
	return views
}

// inputFromForm 解析表单字段; 返回的Input总是可用于回显
func inputFromForm(r *http.Request) (applicant.Input, error) {
	var in applicant.Input
	if err := r.ParseForm(); err != nil {
		return in, err
	}

	var err error
	in.Age = formInt(r, "age", &err)
	in.Income = formFloat(r, "income", &err)
	in.LoanAmount = formFloat(r, "loan_amount", &err)
	in.CreditScore = formInt(r, "credit_score", &err)
	in.MonthsEmployed = formInt(r, "months_employed", &err)
	in.NumCreditLines = formInt(r, "num_credit_lines", &err)
	in.InterestRate = formFloat(r, "interest_rate", &err)
	in.LoanTerm = formInt(r, "loan_term", &err)
	in.DTIRatio = formFloat(r, "dti_ratio", &err)
	in.Education = applicant.Label(r.PostFormValue("education"))
	in.EmploymentType = applicant.Label(r.PostFormValue("employment_type"))
	in.MaritalStatus = applicant.Label(r.PostFormValue("marital_status"))
	in.LoanPurpose = applicant.Label(r.PostFormValue("loan_purpose"))
	in.HasMortgage = formFlag(r, "has_mortgage", &err)
	in.HasDependents = formFlag(r, "has_dependents", &err)
	in.HasCoSigner = formFlag(r, "has_co_signer", &err)
	return in, err
}

func formInt(r *http.Request, name string, errs *error) int {
	raw := strings.TrimSpace(r.PostFormValue(name))
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = multierr.Append(*errs, fmt.Errorf("%w: %s %q is not a whole number", applicant.ErrOutOfRange, name, raw))
	}
	return v
}

func formFloat(r *http.Request, name string, errs *error) float64 {
	raw := strings.TrimSpace(r.PostFormValue(name))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = multierr.Append(*errs, fmt.Errorf("%w: %s %q is not a number", applicant.ErrOutOfRange, name, raw))
	}
	return v
}

func formFlag(r *http.Request, name string, errs *error) applicant.Flag {
	v, err := applicant.ParseFlag(r.PostFormValue(name))
	if err != nil {
		*errs = multierr.Append(*errs, err)
	}
	return applicant.Flag(v)
}
