package cube

import (
	"net/url"
	"strings"
)

// searchFilter excludes basic lands and digital-only printings
const searchFilter = "-t:Basic AND game:paper"

// FetchQuery selects which cards make up a cube
type FetchQuery struct {
	Sets          []string
	IncludeRarity bool
}

// SearchExpression returns the boolean search expression for the query,
// e.g. "(-t:Basic AND game:paper AND (set:akh OR set:dom))".
func (q FetchQuery) SearchExpression() string {
	terms := make([]string, 0, len(q.Sets))
	for _, set := range q.Sets {
		terms = append(terms, "set:"+set)
	}
	return "(" + searchFilter + " AND (" + strings.Join(terms, " OR ") + "))"
}

// SearchURL builds the first page URL of a name-ordered card search.
func SearchURL(baseURL string, q FetchQuery) string {
	v := url.Values{}
	v.Set("order", "name")
	v.Set("format", "json")
	v.Set("q", q.SearchExpression())
	v.Set("page", "1")
	return strings.TrimRight(baseURL, "/") + "/cards/search?" + v.Encode()
}
