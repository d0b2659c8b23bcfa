package search

import (
	"regexp"
	"strings"
)

// financeTerms are appended, in this order, when they occur as whole words.
var financeTerms = []string{
	"debit", "credit", "transfer", "payment", "received",
	"request", "deposit", "withdrawal", "refund", "charge",
}

var (
	financeTermPatterns = compileTerms(financeTerms)

	partyPattern  = regexp.MustCompile(`(?i)(?:from|to|cc)\s+([^,]+?)(?:\s+for|\s*,|\s+ref)`)
	actionPattern = regexp.MustCompile(`(?i)\b(transfer|payment|refund|deposit|withdrawal|received)\s+(?:from|to|for)`)

	referenceCode = regexp.MustCompile(`ACC//[^/]+//CNTR`)
	referenceID   = regexp.MustCompile(`ref\s+[A-Za-z0-9]{5,}`)
)

func compileTerms(terms []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(terms))
	for i, term := range terms {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
	}
	return out
}

// Preprocess condenses a description to the parts that carry meaning for
// an embedding model: finance terms, counterparties and action verbs, in
// that order. When none are present the bank reference codes are stripped
// and the rest is returned trimmed.
func Preprocess(text string) string {
	if text == "" {
		return ""
	}

	var parts []string
	for i, re := range financeTermPatterns {
		if re.MatchString(text) {
			parts = append(parts, financeTerms[i])
		}
	}
	for _, m := range partyPattern.FindAllStringSubmatch(text, -1) {
		if party := strings.TrimSpace(m[1]); party != "" {
			parts = append(parts, party)
		}
	}
	for _, m := range actionPattern.FindAllStringSubmatch(text, -1) {
		if action := strings.TrimSpace(m[1]); action != "" {
			parts = append(parts, action)
		}
	}

	if len(parts) == 0 {
		residual := referenceCode.ReplaceAllString(text, " ")
		residual = referenceID.ReplaceAllString(residual, " ")
		return strings.TrimSpace(residual)
	}
	return strings.Join(parts, " ")
}
