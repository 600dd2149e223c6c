package index

import (
	"strconv"
	"strings"

	"reelcache/internal/textutil"
)

// compiler renders a Query as one SQL statement over the documents table
// aliased d. Each full-text lookup becomes a materialized FTS5 search whose
// negated bm25() rank is the clause score; the lookups are left-joined on
// the document rowid. Term clauses on text fields search the keyword table
// of the field the same way. Term clauses on other fields and Range clauses
// test the JSON body and score a constant.
type compiler struct {
	index   string
	mapping Mapping

	args  []any
	ctes  []string
	joins []string
}

// compiled is a clause as two SQL expressions: match is true for rows that
// satisfy the clause; score is only meaningful on those rows.
type compiled struct {
	match string
	score string
}

var noMatch = compiled{match: "0", score: "0"}

// param binds v and returns its numbered placeholder, which may be repeated.
func (c *compiler) param(v any) string {
	c.args = append(c.args, v)
	return "?" + strconv.Itoa(len(c.args))
}

// lookup adds a full-text search of table and returns its alias.
func (c *compiler) lookup(table, expr string) string {
	alias := "m" + strconv.Itoa(len(c.ctes))
	c.ctes = append(c.ctes, alias+" AS MATERIALIZED (SELECT rowid AS doc_id, -bm25("+table+") AS score FROM "+
		table+" WHERE "+table+" MATCH "+c.param(expr)+")")
	c.joins = append(c.joins, "LEFT JOIN "+alias+" ON "+alias+".doc_id = d.doc_id")
	return alias
}

func (c *compiler) statement(q Query) string {
	root := c.compile(q.Bool)
	idx := c.param(c.index)
	limit := c.param(q.size())

	var b strings.Builder
	if len(c.ctes) > 0 {
		b.WriteString("WITH ")
		b.WriteString(strings.Join(c.ctes, ", "))
		b.WriteString(" ")
	}
	b.WriteString("SELECT d.id, d.body, " + root.score + " AS score, COUNT(*) OVER () AS total FROM documents d")
	for _, join := range c.joins {
		b.WriteString(" " + join)
	}
	b.WriteString(" WHERE d.idx = " + idx + " AND " + root.match)
	b.WriteString(" ORDER BY score DESC, d.id ASC LIMIT " + limit)
	return b.String()
}

func (c *compiler) compile(cl Clause) compiled {
	switch v := cl.(type) {
	case Match:
		return c.match(v)
	case Term:
		return c.term(v)
	case Range:
		return c.rangeClause(v)
	case Bool:
		return c.boolean(v)
	default:
		return noMatch
	}
}

func (c *compiler) match(m Match) compiled {
	tokens := uniqueTokens(textutil.Analyze(m.Text))
	if len(tokens) == 0 || len(m.Fields) == 0 {
		return noMatch
	}
	quoted := make([]string, 0, len(tokens))
	for _, t := range tokens {
		quoted = append(quoted, `"`+t+`"`)
	}
	expr := strings.Join(quoted, " OR ")

	var found, scores []string
	for _, f := range m.Fields {
		alias := c.lookup(textTable(c.index, f), expr)
		found = append(found, alias+".doc_id IS NOT NULL")
		scores = append(scores, "coalesce("+alias+".score, 0)")
	}
	return compiled{match: anyOf(found), score: boosted(bestOf(scores), m.Boost)}
}

// jsonScalar is the comparable form of a json_each row. JSON booleans read
// back as 1 and 0 otherwise.
const jsonScalar = "CASE j.type WHEN 'true' THEN 'true' WHEN 'false' THEN 'false' " +
	"WHEN 'object' THEN NULL WHEN 'array' THEN NULL ELSE j.value END"

func (c *compiler) term(t Term) compiled {
	value := textutil.Fold(valueString(t.Value))
	if value == "" || len(t.Fields) == 0 {
		return noMatch
	}
	var found, scores []string
	for _, f := range t.Fields {
		if c.mapping.hasText(f) {
			alias := c.lookup(keywordTable(c.index, f), `"`+keywordToken(value)+`"`)
			found = append(found, alias+".doc_id IS NOT NULL")
			scores = append(scores, "coalesce("+alias+".score, 0)")
			continue
		}
		pred := "EXISTS (SELECT 1 FROM json_each(d.body, " + c.param(jsonPath(f)) + ") j WHERE " +
			foldFunc + "(" + jsonScalar + ") = " + c.param(value) + ")"
		found = append(found, pred)
		scores = append(scores, "(CASE WHEN "+pred+" THEN 1 ELSE 0 END)")
	}
	return compiled{match: anyOf(found), score: boosted(bestOf(scores), t.Boost)}
}

func (c *compiler) rangeClause(r Range) compiled {
	var b strings.Builder
	b.WriteString("EXISTS (SELECT 1 FROM json_each(d.body, " + c.param(jsonPath(r.Field)) + ") j WHERE j.type IN ('integer', 'real')")
	if r.Gte != nil {
		b.WriteString(" AND j.value >= " + c.param(*r.Gte))
	}
	if r.Lte != nil {
		b.WriteString(" AND j.value <= " + c.param(*r.Lte))
	}
	b.WriteString(")")
	return compiled{match: b.String(), score: formatBoost(r.Boost)}
}

func (c *compiler) boolean(b Bool) compiled {
	var required, scores []string
	for _, cl := range b.Must {
		x := c.compile(cl)
		required = append(required, x.match)
		scores = append(scores, x.score)
	}
	for _, cl := range b.Filter {
		required = append(required, c.compile(cl).match)
	}
	var optional []string
	for _, cl := range b.Should {
		x := c.compile(cl)
		optional = append(optional, x.match)
		scores = append(scores, "(CASE WHEN "+x.match+" THEN "+x.score+" ELSE 0 END)")
	}

	out := compiled{match: "1", score: "0"}
	switch {
	case len(required) > 0:
		out.match = "(" + strings.Join(required, " AND ") + ")"
	case len(optional) > 0:
		out.match = anyOf(optional)
	}
	if len(scores) > 0 {
		out.score = boosted("("+strings.Join(scores, " + ")+")", b.Boost)
	}
	return out
}

func anyOf(preds []string) string {
	return "(" + strings.Join(preds, " OR ") + ")"
}

// bestOf is the highest of scores; absent lookups score zero.
func bestOf(scores []string) string {
	if len(scores) == 1 {
		return scores[0]
	}
	return "max(" + strings.Join(scores, ", ") + ")"
}

func boosted(expr string, boost float64) string {
	if boostOf(boost) == 1 {
		return expr
	}
	return "(" + expr + ") * " + formatBoost(boost)
}

func formatBoost(boost float64) string {
	return strconv.FormatFloat(boostOf(boost), 'g', -1, 64)
}

func uniqueTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
