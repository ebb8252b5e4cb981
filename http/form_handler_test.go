package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"loanscore/applicant"
)

func defaultFormValues() url.Values {
	return url.Values{
		"age":              {"30"},
		"income":           {"50000"},
		"loan_amount":      {"20000"},
		"credit_score":     {"650"},
		"months_employed":  {"24"},
		"num_credit_lines": {"2"},
		"interest_rate":    {"10.5"},
		"loan_term":        {"36"},
		"dti_ratio":        {"0.3"},
		"education":        {"Bachelor"},
		"employment_type":  {"Full-time"},
		"marital_status":   {"Single"},
		"has_mortgage":     {"0"},
		"has_dependents":   {"0"},
		"loan_purpose":     {"Personal"},
		"has_co_signer":    {"0"},
	}
}

func postForm(mux http.Handler, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestFormPage(t *testing.T) {
	mux := newTestRouter(newFakeScorer())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("unexpected content type: %s", w.Header().Get("Content-Type"))
	}
	body := w.Body.String()
	for _, want := range []string{
		`name="age"`,
		`min="18" max="100"`,
		`min="300" max="850"`,
		`<option value="Bachelor" selected>`,
		`<option value="Full-time" selected>`,
		`<option value="Personal" selected>`,
		`<option value="PhD">`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("form page missing %q", want)
		}
	}
	if strings.Contains(body, "Probability of Default") {
		t.Error("form page should not show a result before submission")
	}
}

func TestFormPageUnknownPath(t *testing.T) {
	mux := newTestRouter(newFakeScorer())

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestFormPredict(t *testing.T) {
	scorer := newFakeScorer()
	scorer.probability = 0.125
	mux := newTestRouter(scorer)

	w := postForm(mux, defaultFormValues())

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "Prediction: No Default") {
		t.Errorf("missing verdict in page")
	}
	if !strings.Contains(body, "Probability of Default: 12.50%") {
		t.Errorf("missing probability in page")
	}
	if !strings.Contains(body, "Interest value: 210,000.00") {
		t.Errorf("missing interest value in page")
	}
	if scorer.last != applicant.Default() {
		t.Fatalf("form decoded to %+v, want defaults", scorer.last)
	}
}

func TestFormPredictDefaultVerdict(t *testing.T) {
	scorer := newFakeScorer()
	scorer.label = 1
	scorer.probability = 0.8
	mux := newTestRouter(scorer)

	values := defaultFormValues()
	values.Set("has_mortgage", "1")
	values.Set("loan_purpose", "Other")
	w := postForm(mux, values)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Prediction: Default") {
		t.Errorf("missing default verdict in page")
	}
	if !scorer.last.HasMortgage || scorer.last.LoanPurpose != applicant.PurposePersonal {
		t.Fatalf("unexpected record: %+v", scorer.last)
	}
}

func TestFormPredictInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
		want  string
	}{
		{"not a number", "age", "thirty", "age"},
		{"unknown category", "education", "Kindergarten", "unknown category"},
		{"bad flag", "has_co_signer", "maybe", "Invalid input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := newFakeScorer()
			values := defaultFormValues()
			values.Set(tt.field, tt.value)
			w := postForm(newTestRouter(scorer), values)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			body := w.Body.String()
			if !strings.Contains(body, "Invalid input") || !strings.Contains(body, tt.want) {
				t.Fatalf("expected error mentioning %q, got %s", tt.want, body)
			}
			if scorer.calls != 0 {
				t.Fatalf("scorer should not be called, got %d calls", scorer.calls)
			}
		})
	}
}

func TestFormPredictScorerFailure(t *testing.T) {
	scorer := newFakeScorer()
	scorer.err = errors.New("model exploded")
	w := postForm(newTestRouter(scorer), defaultFormValues())

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Error during prediction. Please try again later.") {
		t.Fatalf("missing generic error message: %s", body)
	}
	if strings.Contains(body, "exploded") {
		t.Fatalf("internal error leaked to page")
	}
	if !strings.Contains(body, `value="30"`) {
		t.Fatalf("submitted values should be echoed back")
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		tag  language.Tag
		p    float64
		want string
	}{
		{language.English, 0.125, "12.50%"},
		{language.English, 0, "0.00%"},
		{language.English, 1, "100.00%"},
		{language.German, 0.125, "12,50%"},
	}

	for _, tt := range tests {
		if got := formatPercent(message.NewPrinter(tt.tag), tt.p); got != tt.want {
			t.Errorf("formatPercent(%v, %v) = %q, want %q", tt.tag, tt.p, got, tt.want)
		}
	}
}

func TestPrinterForAcceptLanguage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9")
	if got := formatAmount(printerFor(req), 210000); got != "210.000,00" {
		t.Fatalf("formatAmount() = %q", got)
	}

	req.Header.Set("Accept-Language", "")
	if got := formatAmount(printerFor(req), 210000); got != "210,000.00" {
		t.Fatalf("formatAmount() = %q", got)
	}
}
