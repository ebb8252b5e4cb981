package http

import (
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var supportedLanguages = []language.Tag{
	language.English,
	language.German,
	language.French,
	language.Spanish,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

// printerFor 根据Accept-Language选择数字格式
func printerFor(r *http.Request) *message.Printer {
	tag, _ := language.MatchStrings(languageMatcher, r.Header.Get("Accept-Language"))
	return message.NewPrinter(tag)
}

func formatPercent(p *message.Printer, probability float64) string {
	return p.Sprintf("%.2f%%", probability*100)
}

func formatAmount(p *message.Printer, amount float64) string {
	return p.Sprintf("%.2f", amount)
}
