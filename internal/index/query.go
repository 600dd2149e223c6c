package index

// Clause is one node of a boolean query: Match, Term, Range, or Bool.
type Clause interface {
	clause()
}

// Match is a full-text clause. Text is analyzed and ranked by the index's
// bm25() against each field; the best scoring field wins.
type Match struct {
	Fields []string
	Text   string
	Boost  float64
}

// Term matches documents where any of Fields holds Value exactly, ignoring
// case. On text fields it is ranked like a one-word Match over whole values,
// so rare values score higher; on other fields it scores a constant.
type Term struct {
	Fields []string
	Value  any
	Boost  float64
}

// Range matches numeric fields within the inclusive bounds. A nil bound is
// open. Matching documents receive a constant score.
type Range struct {
	Field string
	Gte   *float64
	Lte   *float64
	Boost float64
}

// Bool combines clauses.
type Bool struct {
	Must   []Clause
	Should []Clause
	Filter []Clause
	Boost  float64
}

func (Match) clause() {}
func (Term) clause()  {}
func (Range) clause() {}
func (Bool) clause()  {}

// Query is a root boolean query plus the number of hits to return.
type Query struct {
	Bool
	Size int
}

const defaultSize = 10

// NewMatch builds a Match clause over fields.
func NewMatch(text string, fields ...string) Match {
	return Match{Fields: fields, Text: text}
}

// NewTerm builds a Term clause over fields.
func NewTerm(value any, fields ...string) Term {
	return Term{Fields: fields, Value: value}
}

// Between builds a Range clause with both bounds set.
func Between(field string, lo, hi float64) Range {
	return Range{Field: field, Gte: &lo, Lte: &hi}
}

// AtLeast builds a Range clause with only a lower bound.
func AtLeast(field string, lo float64) Range {
	return Range{Field: field, Gte: &lo}
}

func boostOf(b float64) float64 {
	if b == 0 {
		return 1
	}
	return b
}

func (q Query) size() int {
	if q.Size <= 0 {
		return defaultSize
	}
	return q.Size
}

// textFields returns every field referenced by a Match clause in c.
func textFields(c Clause, dst map[string]struct{}) {
	switch v := c.(type) {
	case Match:
		for _, f := range v.Fields {
			dst[f] = struct{}{}
		}
	case Bool:
		for _, group := range [][]Clause{v.Must, v.Should, v.Filter} {
			for _, child := range group {
				textFields(child, dst)
			}
		}
	}
}
