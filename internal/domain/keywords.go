package domain

import "strings"

// queryConnective is the literal connective joining keyword terms. It is
// passed through verbatim to the backend's query_string syntax, not
// escaped into a boolean operator.
const queryConnective = " and "

// KeywordExpression holds the ordered keyword terms parsed from raw user
// input. Empty pieces are kept so term positions survive the comma split;
// they are skipped when the expression is rendered or checked for
// usability.
type KeywordExpression struct {
	terms []string
}

// ParseKeywords splits raw input on commas and trims each piece.
func ParseKeywords(raw string) KeywordExpression {
	pieces := strings.Split(raw, ",")
	terms := make([]string, 0, len(pieces))
	for _, p := range pieces {
		terms = append(terms, strings.TrimSpace(p))
	}
	return KeywordExpression{terms: terms}
}

// Terms returns all parsed terms, including empty ones.
func (e KeywordExpression) Terms() []string {
	return append([]string(nil), e.terms...)
}

// UsableTerms returns the non-empty terms in order.
func (e KeywordExpression) UsableTerms() []string {
	out := make([]string, 0, len(e.terms))
	for _, t := range e.terms {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Empty reports whether the expression has no usable terms.
func (e KeywordExpression) Empty() bool {
	return len(e.UsableTerms()) == 0
}

// QueryString joins the usable terms with the backend connective.
func (e KeywordExpression) QueryString() string {
	return strings.Join(e.UsableTerms(), queryConnective)
}
