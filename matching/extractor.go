package matching

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rule is a single extraction pattern. Group selects the submatch that holds
// the candidate name.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Group   int
}

// DefaultRules returns the built-in extraction rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "from-for-deel", Group: 1, Pattern: regexp.MustCompile(`[Ff]rom\s+([^,]+?)(?:\s+for\s+[Dd]eel|,\s*for\s+[Dd]eel|\s*for\s+[Dd]eel)`)},
		{Name: "transfer-from", Group: 1, Pattern: regexp.MustCompile(`(?:[Tt]ransfer|[Pp]ayment|[Rr]eceived|[Rr]equest)\s+from\s+([^,]+?)(?:\s+for\s+[Dd]eel|,|\s+ref)`)},
		{Name: "to-deel-from", Group: 1, Pattern: regexp.MustCompile(`[Tt]o\s+[Dd]eel,?\s+[Ff]rom\s+([^,]+?)(?:\s+for|,|ref)`)},
		{Name: "camel-case", Group: 1, Pattern: regexp.MustCompile(`[Ff]rom\s+([A-Z][a-z]+(?:[A-Z][a-z]+)+)(?:\s+for|\s*for)`)},
		{Name: "last-comma-first", Group: 1, Pattern: regexp.MustCompile(`[Ff]rom\s+([A-Za-z]+[\s,]+[A-Za-z]+)(?:\s+for|\s*,)`)},
		{Name: "ref-colon", Group: 1, Pattern: regexp.MustCompile(`ref:\s+([^,]+?)(?:$|,)`)},
		{Name: "cc", Group: 1, Pattern: regexp.MustCompile(`[Cc][Cc]\s+([^,]+?)(?:$|,|ref)`)},
		{Name: "from", Group: 1, Pattern: regexp.MustCompile(`[Ff]rom\s+([^,]+?)(?:$|\s|,|ref)`)},
		{Name: "reference-code", Group: 1, Pattern: regexp.MustCompile(`ACC//[^/]*//CNTR(?:[^A-Za-z0-9]*([A-Za-z][A-Za-z\s]+))?`)},
		{Name: "reference-suffix", Group: 1, Pattern: regexp.MustCompile(`//CNTR[^A-Za-z0-9]*([A-Za-z][A-Za-z\s]+)`)},
	}
}

// referenceMarker identifies bank reference codes, which are never names.
const referenceMarker = "ACC//"

var stopTerms = map[string]struct{}{
	"deel":     {},
	"for deel": {},
	"ref":      {},
	"acc":      {},
	"from":     {},
	"to":       {},
}

var (
	gluedForDeel    = regexp.MustCompile(`([a-zA-Z])for\s+[Dd]eel`)
	refSpacing      = regexp.MustCompile(`ref\s+([A-Za-z0-9])`)
	caseBoundary    = regexp.MustCompile(`([a-z])([A-Z])`)
	strayPunct      = regexp.MustCompile(`[|;'"\\\[\]{}()]`)
	multiSpace      = regexp.MustCompile(`\s{2,}`)
	leadingRole     = regexp.MustCompile(`(?i)^(?:ref|cc|from|to|debit)\s+`)
	leadingNonWord  = regexp.MustCompile(`^[^\p{L}\p{N}_\s]+`)
	trailingForDeel = regexp.MustCompile(`\s+for\s+[Dd]eel$`)
	trailingFor     = regexp.MustCompile(`(?i)\s+for\s*$`)
	allDigits       = regexp.MustCompile(`^[0-9]+$`)
)

// Extractor proposes substrings of a transaction description that may be a
// person's name. It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	rules []Rule
}

// NewExtractor creates an extractor. With no rules the defaults are used.
func NewExtractor(rules ...Rule) *Extractor {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Extractor{rules: rules}
}

// Rules returns the extractor's rules in evaluation order.
func (e *Extractor) Rules() []Rule {
	return e.rules
}

// Extract returns candidate names found in description, in first-seen order
// and without duplicates.
func (e *Extractor) Extract(description string) []string {
	if strings.TrimSpace(description) == "" {
		return []string{}
	}

	cleaned := preClean(description)

	raw := newOrderedSet()
	for _, rule := range e.rules {
		for _, text := range []string{description, cleaned} {
			for _, m := range rule.Pattern.FindAllStringSubmatch(text, -1) {
				if rule.Group >= len(m) {
					continue
				}
				match := strings.TrimSpace(m[rule.Group])
				if utf8.RuneCountInString(match) > 2 {
					raw.add(match)
				}
			}
		}
	}

	out := newOrderedSet()
	for _, candidate := range raw.items {
		if skipCandidate(candidate) {
			continue
		}

		if strings.Contains(candidate, ",") {
			out.add(candidate)
			candidate = strings.ReplaceAll(candidate, ",", " ")
		}

		candidate = tidyCandidate(candidate)
		if utf8.RuneCountInString(candidate) <= 2 {
			continue
		}
		out.add(candidate)

		if utf8.RuneCountInString(candidate) > 5 && !strings.Contains(candidate, " ") && !isUpper(candidate) {
			for _, split := range NameSplits(candidate) {
				out.add(split)
			}
		}
	}

	return out.items
}

// preClean applies the spacing fixes that make the extraction rules match
// descriptions with glued words and odd comma placement.
func preClean(s string) string {
	s = strings.ReplaceAll(s, "  ", " ")
	s = gluedForDeel.ReplaceAllString(s, "${1} for Deel")
	s = padCommas(s, func(prev rune, ok bool) bool { return !ok || !isASCIILetter(prev) }, true)
	s = padCommas(s, func(next rune, ok bool) bool { return !ok || !(isASCIILetter(next) || unicode.IsSpace(next)) }, false)
	s = refSpacing.ReplaceAllString(s, "ref ${1}")
	s = caseBoundary.ReplaceAllString(s, "${1} ${2}")
	return s
}

// padCommas surrounds commas with spaces when pad reports true for the
// neighbouring rune. lookBehind selects the rune before the comma, otherwise
// the rune after it. Neighbours are taken from the unmodified input.
func padCommas(s string, pad func(neighbour rune, ok bool) bool, lookBehind bool) string {
	if !strings.Contains(s, ",") {
		return s
	}
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i, r := range runes {
		if r != ',' {
			b.WriteRune(r)
			continue
		}
		var neighbour rune
		var ok bool
		if lookBehind && i > 0 {
			neighbour, ok = runes[i-1], true
		} else if !lookBehind && i+1 < len(runes) {
			neighbour, ok = runes[i+1], true
		}
		if pad(neighbour, ok) {
			b.WriteString(" , ")
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func skipCandidate(candidate string) bool {
	if _, ok := stopTerms[strings.ToLower(candidate)]; ok {
		return true
	}
	return strings.Contains(candidate, referenceMarker) ||
		strings.HasPrefix(candidate, "ref ") ||
		allDigits.MatchString(candidate)
}

func tidyCandidate(candidate string) string {
	candidate = strayPunct.ReplaceAllString(candidate, " ")
	candidate = strings.TrimSpace(multiSpace.ReplaceAllString(candidate, " "))
	candidate = leadingRole.ReplaceAllString(candidate, "")
	candidate = leadingNonWord.ReplaceAllString(candidate, "")
	candidate = trailingForDeel.ReplaceAllString(candidate, "")
	candidate = trailingFor.ReplaceAllString(candidate, "")
	return strings.TrimSpace(candidate)
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// isUpper reports whether s has at least one cased rune and no lower case runes.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{}), items: []string{}}
}

func (s *orderedSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}
