package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name     string
		values   Values
		wantSkip int
		wantTake int
	}{
		{"start end", Values{"_start": "10", "_end": "20"}, 10, 10},
		{"start end beats page", Values{"_start": "10", "_end": "20", "page": "3", "perPage": "5"}, 10, 10},
		{"page fallback", Values{"page": "3", "perPage": "5"}, 10, 5},
		{"defaults", Values{}, 0, 10},
		{"nil values", nil, 0, 10},
		{"end not after start", Values{"_start": "20", "_end": "20", "page": "2"}, 10, 10},
		{"malformed start end", Values{"_start": "abc", "_end": "x"}, 0, 10},
		{"negative end", Values{"_start": "0", "_end": "-5"}, 0, 10},
		{"malformed page", Values{"page": "two", "perPage": "ten"}, 0, 10},
		{"zero perPage", Values{"page": "2", "perPage": "0"}, 10, 10},
		{"negative page", Values{"page": "-1", "perPage": "25"}, 0, 25},
		{"negative start ignored", Values{"_start": "-4", "_end": "5"}, 0, 5},
		{"huge page stays past the end", Values{"page": "9223372036854775807", "perPage": "10"}, 2147483640, 10},
		{"out of range page", Values{"page": "99999999999999999999"}, 2147483640, 10},
		{"huge perPage", Values{"page": "2", "perPage": "9223372036854775807"}, 2147483647, 2147483647},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, take := ParsePagination(tt.values)
			assert.Equal(t, tt.wantSkip, skip)
			assert.Equal(t, tt.wantTake, take)
		})
	}
}

func TestParseSort(t *testing.T) {
	d := Describe(Customers)

	assert.Nil(t, ParseSort(d, Values{}))
	assert.Nil(t, ParseSort(d, Values{"_order": "DESC"}))
	assert.Nil(t, ParseSort(d, Values{"_sort": "password"}), "unknown fields fall back to storage order")

	s := ParseSort(d, Values{"_sort": "name"})
	require.NotNil(t, s)
	assert.Equal(t, "customers.name ASC", s.String())

	s = ParseSort(d, Values{"_sort": "createdAt", "_order": "desc"})
	require.NotNil(t, s)
	assert.Equal(t, "customers.created_at DESC", s.String())

	s = ParseSort(d, Values{"_sort": "name", "_order": "sideways"})
	require.NotNil(t, s)
	assert.False(t, s.Desc)
}

func TestBuildWhere_TextSearch(t *testing.T) {
	where := BuildWhere(Describe(Customers), Values{"q": "Juan"})
	require.Len(t, where, 1)
	assert.Equal(t, `(LOWER(customers.name) LIKE ? ESCAPE '\' OR LOWER(customers.phone) LIKE ? ESCAPE '\')`, where[0].SQL)
	assert.Equal(t, []any{"%juan%", "%juan%"}, where[0].Args)
}

func TestBuildWhere_EscapesWildcards(t *testing.T) {
	where := BuildWhere(Describe(Stores), Values{"q": "50%_off"})
	require.Len(t, where, 1)
	assert.Equal(t, []any{`%50\%\_off%`}, where[0].Args)
}

func TestBuildWhere_EqualityFilters(t *testing.T) {
	where := BuildWhere(Describe(Utang), Values{
		"storeId":    "s1",
		"status":     "PAID",
		"unknown":    "ignored",
		"customerId": "  ",
		"q":          "rice",
	})
	require.Len(t, where, 3)
	assert.Equal(t, "utangs.status = ?", where[0].SQL)
	assert.Equal(t, []any{"PAID"}, where[0].Args)
	assert.Equal(t, "utangs.store_id = ?", where[1].SQL)
	assert.Equal(t, []any{"s1"}, where[1].Args)
	assert.Equal(t, `(LOWER(utangs.description) LIKE ? ESCAPE '\')`, where[2].SQL)
}

func TestBuildWhere_NoSearchColumns(t *testing.T) {
	assert.Empty(t, BuildWhere(Describe(UtangItems), Values{"q": "anything"}))
}

func TestTranslate(t *testing.T) {
	q := Translate(Payments, Values{
		"_start": "5", "_end": "15", "_sort": "amount", "_order": "DESC",
		"paymentMethod": "CASH", "q": "ref",
	})
	assert.Equal(t, 5, q.Skip)
	assert.Equal(t, 10, q.Take)
	require.NotNil(t, q.Sort)
	assert.Equal(t, "payments.amount DESC", q.Sort.String())
	require.Len(t, q.Where, 2)
	assert.Equal(t, "payments.payment_method = ?", q.Where[0].SQL)
}

func TestPredicateAnd_DoesNotAlias(t *testing.T) {
	base := make(Predicate, 1, 4)
	base[0] = Clause{SQL: "a = ?"}
	left := base.And(Clause{SQL: "b = ?"})
	right := base.And(Clause{SQL: "c = ?"})
	assert.Equal(t, "b = ?", left[1].SQL)
	assert.Equal(t, "c = ?", right[1].SQL)
}
