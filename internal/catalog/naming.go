package catalog

import (
	"regexp"
	"strings"

	"github.com/gobuffalo/flect"
)

var nonIdentifierRune = regexp.MustCompile(`[^A-Za-z0-9_]`)

// graphQLName derives a GraphQL-identifier-safe name from a raw catalog
// name: non-identifier characters become underscores, and a leading digit
// is prefixed with an underscore (GraphQL names must start with a letter
// or underscore).
func graphQLName(raw string) string {
	name := nonIdentifierRune.ReplaceAllString(raw, "_")
	if name == "" {
		return "_"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

// disambiguate appends an incrementing numeric suffix to name until it no
// longer collides with an entry already present in used.
func disambiguate(name string, used map[string]bool) string {
	if !used[name] {
		used[name] = true
		return name
	}
	for i := 2; ; i++ {
		candidate := name + "_" + itoa(i)
		if !used[candidate] {
			used[candidate] = true
			return candidate
		}
	}
}

func itoa(i int) string {
	// Small helper to avoid importing strconv solely for this; kept local
	// since callers only ever pass small disambiguation counters.
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var b []byte
	for i > 0 {
		b = append([]byte{byte('0' + i%10)}, b...)
		i /= 10
	}
	if neg {
		return "-" + string(b)
	}
	return string(b)
}

// singularize returns the singular form of a table name, used as
// Table.NormalizedName and as the default single-link name.
func singularize(name string) string {
	return flect.Singularize(name)
}

// pluralize returns the plural form of a name, used as the default
// multi-link name.
func pluralize(name string) string {
	return flect.Pluralize(name)
}

// stripTrailingID removes a trailing "_id" or "id" suffix, matched in any
// letter case (so "workshopid", "WorkshopId" and "workshop_ID" all qualify), from a foreign
// key column name, the first candidate for a single link's name per the
// construction rules this package implements.
func stripTrailingID(col string) (string, bool) {
	lower := strings.ToLower(col)
	switch {
	case strings.HasSuffix(lower, "_id") && len(col) > 3:
		return col[:len(col)-3], true
	case strings.HasSuffix(lower, "id") && len(col) > 2:
		return col[:len(col)-2], true
	default:
		return "", false
	}
}
