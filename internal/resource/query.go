package resource

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	defaultPage    = 1
	defaultPerPage = 10

	// maxWindow bounds page arithmetic so that skip never overflows.
	maxWindow = math.MaxInt32
)

// Values are the raw query-string pairs of a list request.
type Values map[string]string

// Get returns the value for key, or "" when absent.
func (v Values) Get(key string) string {
	if v == nil {
		return ""
	}
	return v[key]
}

// Clause is one SQL condition with its bind arguments.
type Clause struct {
	SQL  string
	Args []any
}

// Predicate is a list of clauses combined with AND.
type Predicate []Clause

// And returns a new predicate with the extra clauses appended.
func (p Predicate) And(clauses ...Clause) Predicate {
	out := make(Predicate, 0, len(p)+len(clauses))
	out = append(out, p...)
	return append(out, clauses...)
}

// Sort is a single ordering key.
type Sort struct {
	Column string
	Desc   bool
}

// String renders the ORDER BY fragment.
func (s Sort) String() string {
	if s.Desc {
		return s.Column + " DESC"
	}
	return s.Column + " ASC"
}

// Query is the storage-level form of a list request.
type Query struct {
	Skip  int
	Take  int
	Sort  *Sort
	Where Predicate
}

// Translate turns the list request parameters of kind k into a Query. The
// access predicate is not included; callers AND it in.
func Translate(k Kind, v Values) Query {
	d := Describe(k)
	skip, take := ParsePagination(v)
	return Query{
		Skip:  skip,
		Take:  take,
		Sort:  ParseSort(d, v),
		Where: BuildWhere(d, v),
	}
}

// nonNegative parses s as an integer, returning 0 for blank, malformed or
// negative input.
func nonNegative(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func positiveOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if errors.Is(err, strconv.ErrRange) && n > 0 {
		return maxWindow
	}
	if err != nil || n <= 0 {
		return def
	}
	return min(n, maxWindow)
}

// ParsePagination resolves skip/take. `_start`/`_end` win when _end > _start,
// otherwise `page`/`perPage` apply with defaults page 1 of 10. Bad input
// degrades to the defaults instead of failing.
func ParsePagination(v Values) (skip, take int) {
	start := nonNegative(v.Get("_start"))
	end := nonNegative(v.Get("_end"))
	if end > start {
		return start, end - start
	}

	page := positiveOr(v.Get("page"), defaultPage)
	perPage := positiveOr(v.Get("perPage"), defaultPerPage)
	// Far-out pages land past the end instead of wrapping.
	skipped := min(page-1, maxWindow/perPage)
	return skipped * perPage, perPage
}

// ParseSort reads `_sort` and `_order`. Fields outside the kind's sortable set
// are ignored so that storage order applies.
func ParseSort(d Descriptor, v Values) *Sort {
	field := strings.TrimSpace(v.Get("_sort"))
	if field == "" {
		return nil
	}
	column, ok := d.Sortable[field]
	if !ok {
		return nil
	}
	return &Sort{
		Column: d.Table + "." + column,
		Desc:   strings.EqualFold(strings.TrimSpace(v.Get("_order")), "DESC"),
	}
}

func nonBlank(s string) (string, bool) {
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive LIKE pattern matching q anywhere.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
}

// BuildWhere combines the equality filters and the `q` text search of d.
func BuildWhere(d Descriptor, v Values) Predicate {
	var where Predicate

	keys := make([]string, 0, len(d.Equals))
	for key := range d.Equals {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if val, ok := nonBlank(v.Get(key)); ok {
			where = append(where, Clause{
				SQL:  fmt.Sprintf("%s.%s = ?", d.Table, d.Equals[key]),
				Args: []any{val},
			})
		}
	}

	if q, ok := nonBlank(v.Get("q")); ok && len(d.Search) > 0 {
		pattern := containsPattern(q)
		parts := make([]string, len(d.Search))
		args := make([]any, len(d.Search))
		for i, col := range d.Search {
			parts[i] = fmt.Sprintf(`LOWER(%s.%s) LIKE ? ESCAPE '\'`, d.Table, col)
			args[i] = pattern
		}
		where = append(where, Clause{
			SQL:  "(" + strings.Join(parts, " OR ") + ")",
			Args: args,
		})
	}

	return where
}
