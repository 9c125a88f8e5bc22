package lineage

import (
	"regexp"
	"sort"
	"strings"
)

// tableRefPattern matches a backtick-quoted or bare identifier, optionally
// qualified by a second one (database.table). This is deliberately not a
// SQL grammar: it only needs to recognize table references adjacent to the
// FROM/JOIN/TO keywords of a CREATE MATERIALIZED VIEW statement. Keyword
// collisions inside string literals or nested subqueries are accepted as
// false positives.
const tableRefPattern = "(?:`[^`]+`|[a-zA-Z_]\\w*)(?:\\.(?:`[^`]+`|[a-zA-Z_]\\w*))?"

var (
	asSelectRe = regexp.MustCompile(`(?is)\bAS\s+SELECT\b`)
	fromRe     = regexp.MustCompile(`(?i)\bFROM\s+(` + tableRefPattern + `)`)
	joinRe     = regexp.MustCompile(`(?i)\bJOIN\s+(` + tableRefPattern + `)`)
	toRe       = regexp.MustCompile(`(?i)\bTO\s+(` + tableRefPattern + `)`)
)

// qualifyTableName strips backticks and prepends the default database to
// unqualified references.
func qualifyTableName(ref, defaultDatabase string) string {
	ref = strings.TrimSpace(strings.ReplaceAll(ref, "`", ""))
	if strings.Contains(ref, ".") {
		return ref
	}
	return defaultDatabase + "." + ref
}

// ParseSourceTables extracts all FROM and JOIN table references from the
// SELECT portion of a CREATE MATERIALIZED VIEW statement. Everything before
// the first AS SELECT is ignored (it holds the view name and an optional TO
// clause). Returns a deduplicated, lexicographically sorted list of fully
// qualified names; nil when the statement has no AS SELECT.
func ParseSourceTables(createQuery, defaultDatabase string) []string {
	loc := asSelectRe.FindStringIndex(createQuery)
	if loc == nil {
		return nil
	}
	selectPart := createQuery[loc[0]:]

	seen := make(map[string]struct{})
	for _, re := range []*regexp.Regexp{fromRe, joinRe} {
		for _, m := range re.FindAllStringSubmatch(selectPart, -1) {
			seen[qualifyTableName(m[1], defaultDatabase)] = struct{}{}
		}
	}

	sources := make([]string, 0, len(seen))
	for s := range seen {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	return sources
}

// ParseTargetTable extracts the write target of a materialized view. With a
// TO clause the qualified target is returned with isImplicit=false. Without
// one the view writes to a hidden backing table named after the view, and
// the synthetic `.inner.<view>` name is returned with isImplicit=true.
func ParseTargetTable(createQuery, database, viewName string) (string, bool) {
	if m := toRe.FindStringSubmatch(createQuery); m != nil {
		return qualifyTableName(m[1], database), false
	}
	return database + ".`.inner." + viewName + "`", true
}
