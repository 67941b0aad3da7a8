package cypher

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
	"unicode/utf8"

	schema "github.com/hanpama/neograph/internal/schema"
)

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

// paramName joins a statement variable and an argument name: personName.
// Names that collide are told apart by statement.param.
func paramName(v, arg string) string { return v + upperFirst(arg) }

// projectionKey names the map entry a field is projected under. Fields with
// arguments get a suffix derived from the coerced argument values, so aliases
// of one field with different arguments do not collide. The runtime computes
// the same key from the same arguments when reading the entry back.
func projectionKey(field string, args map[string]any) string {
	if len(args) == 0 {
		return field
	}
	h := fnv.New32a()
	h.Write([]byte(schema.ValueLiteral(args)))
	return fmt.Sprintf("%s_%08x", field, h.Sum32())
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// quoteIdent backtick-quotes names that are not plain identifiers.
func quoteIdent(s string) string {
	if isIdent(s) {
		return s
	}
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// keywords are the Cypher reserved words, upper-cased.
var keywords = map[string]bool{}

func init() {
	for _, k := range strings.Fields(`
		ALL ASC ASCENDING BY CREATE DELETE DESC DESCENDING DETACH EXISTS LIMIT
		MATCH MERGE ON OPTIONAL ORDER REMOVE RETURN SET SKIP WHERE WITH UNION
		UNWIND AND AS CONTAINS DISTINCT ENDS IN IS NOT OR STARTS XOR CASE ELSE
		END THEN WHEN CONSTRAINT DROP INDEX NODE KEY UNIQUE JOIN SCAN USING
		FALSE NULL TRUE ADD DO FOR MANDATORY OF REQUIRE SCALAR CALL YIELD
		FOREACH LOAD CSV FROM HEADERS PERIODIC COMMIT`) {
		keywords[k] = true
	}
}

// variable renders a statement variable, quoting reserved words as well as
// names that are not plain identifiers.
func variable(v string) string {
	if keywords[strings.ToUpper(v)] {
		return "`" + v + "`"
	}
	return quoteIdent(v)
}

// normalizeParam converts values the Bolt protocol cannot carry, such as the
// json.Number produced by variable decoding, into plain Go values.
func normalizeParam(v any) any {
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float32:
		return float64(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = normalizeParam(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = normalizeParam(e)
		}
		return out
	}
	return v
}
