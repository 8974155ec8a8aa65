// Package naming derives type and field names from SQL identifiers.
package naming

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// ClassName converts a snake, kebab or space separated identifier to PascalCase.
// Each segment keeps its first letter upper-cased and the rest lower-cased.
func ClassName(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	capNext := true
	for _, r := range s {
		if r == '_' || r == '-' || r == ' ' {
			capNext = true
			continue
		}
		if capNext {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(unicode.ToLower(r))
		}
		capNext = false
	}
	return b.String()
}

// FieldName converts an identifier to camelCase
func FieldName(s string) string {
	c := ClassName(s)
	if c == "" {
		return ""
	}
	runes := []rune(c)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// Pluralize applies the default suffix rule: "y" becomes "ies", a trailing
// "s" gets "es", anything else gets "s". Irregular nouns are not handled.
func Pluralize(word string) string {
	return SuffixInflector{}.Plural(word)
}

// Singularize reverses Pluralize for the common cases: "ies" becomes "y";
// "sses", "sises" and "uses" after a consonant lose "es"; any other trailing
// "s" is dropped. Words ending in "ss", "us" or "is" are already singular
// ("status", "analysis") and are returned unchanged.
func Singularize(word string) string {
	return SuffixInflector{}.Singular(word)
}

// EntityField is the field name used for a reference to a single row of table.
// "users" gives "user", "order_items" gives "orderItem".
func EntityField(in Inflector, table string) string {
	return FieldName(in.Singular(table))
}

// CollectionField is the field name used for a collection of rows of table.
// "orders" gives "orders", "categories" gives "categories".
func CollectionField(in Inflector, table string) string {
	return in.Plural(EntityField(in, table))
}

// Inflector converts words between singular and plural
type Inflector interface {
	Plural(word string) string
	Singular(word string) string
}

// SuffixInflector is the default suffix-rule inflector
type SuffixInflector struct{}

func (SuffixInflector) Plural(word string) string {
	switch {
	case strings.HasSuffix(word, "y"):
		return strings.TrimSuffix(word, "y") + "ies"
	case strings.HasSuffix(word, "s"):
		return word + "es"
	default:
		return word + "s"
	}
}

func (SuffixInflector) Singular(word string) string {
	lower := strings.ToLower(word)
	switch {
	case strings.HasSuffix(lower, "ies") && len(word) > 3:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(lower, "ss"), strings.HasSuffix(lower, "us"), strings.HasSuffix(lower, "is"):
		return word
	case strings.HasSuffix(lower, "sses"), strings.HasSuffix(lower, "sises"), consonantBefore(lower, "uses"):
		return word[:len(word)-2]
	case strings.HasSuffix(lower, "s") && len(word) > 1:
		return word[:len(word)-1]
	default:
		return word
	}
}

// consonantBefore reports whether word ends in suffix preceded by a consonant.
// "statuses" matches "uses", "houses" does not.
func consonantBefore(word, suffix string) bool {
	if !strings.HasSuffix(word, suffix) || len(word) == len(suffix) {
		return false
	}
	return !strings.ContainsRune("aeiou", rune(word[len(word)-len(suffix)-1]))
}

// DictionaryInflector uses the English inflection rules from
// github.com/jinzhu/inflection, which know irregular nouns such as "person".
// It must be selected explicitly.
type DictionaryInflector struct{}

func (DictionaryInflector) Plural(word string) string {
	if word == "" {
		return ""
	}
	return inflection.Plural(word)
}

func (DictionaryInflector) Singular(word string) string {
	if word == "" {
		return ""
	}
	return inflection.Singular(word)
}

// InflectorFor returns the inflector registered under name: "suffix" (or
// empty) and "inflection". ok is false for unknown names.
func InflectorFor(name string) (in Inflector, ok bool) {
	switch strings.ToLower(name) {
	case "", "suffix":
		return SuffixInflector{}, true
	case "inflection":
		return DictionaryInflector{}, true
	default:
		return nil, false
	}
}
