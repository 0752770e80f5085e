package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// FallbackTableName is used when sanitisation leaves nothing of a name.
const FallbackTableName = "imported_data"

func sanitizeRunes(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

// SanitizeTableName canonicalises a caller-supplied name into a safe SQL
// identifier: ASCII letters, digits and underscores survive, every other
// rune becomes an underscore, and edge underscores are trimmed. Names
// that sanitise to nothing fall back to FallbackTableName.
func SanitizeTableName(name string) string {
	s := sanitizeRunes(name)
	if s == "" {
		return FallbackTableName
	}
	return s
}

// SanitizeColumnName canonicalises a header cell the same way, except
// that blank headers become Column{ordinal} with ordinal 1-based.
func SanitizeColumnName(name string, ordinal int) string {
	s := sanitizeRunes(name)
	if s == "" {
		return fmt.Sprintf("Column%d", ordinal)
	}
	return s
}

// QuoteIdentifier wraps name in double quotes for embedding in SQL.
// Names containing a double quote are rejected rather than escaped.
func QuoteIdentifier(name string) (string, error) {
	if name == "" {
		return "", Errorf(KindInvalidArgument, "Empty identifier")
	}
	if strings.Contains(name, `"`) {
		return "", Errorf(KindInvalidArgument, "Invalid identifier: %s", name)
	}
	return `"` + name + `"`, nil
}

// EscapeStringLiteral doubles single quotes so s can sit inside a SQL
// string literal. Used for file paths handed to COPY and friends, which
// cannot be bound as parameters.
func EscapeStringLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// QuoteLiteral renders a wire value as a SQL literal. Only view bodies
// use this form; windowed reads bind their values instead.
func QuoteLiteral(v Value) string {
	switch v.Type {
	case TypeText:
		return "'" + EscapeStringLiteral(v.Str) + "'"
	case TypeInt:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case TypeBool:
		return strconv.FormatBool(v.Bool)
	case TypeArray:
		parts := make([]string, len(v.Arr))
		for i, e := range v.Arr {
			if e.Type == TypeArray {
				parts[i] = "NULL"
				continue
			}
			parts[i] = QuoteLiteral(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return "NULL"
	}
}
