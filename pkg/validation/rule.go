// Package validation evaluates synchronous field rules.
//
// Rules are evaluated in declaration order and every failing rule contributes
// its message. Empty input only ever fails Required rules: length, format and
// custom rules are skipped until there is something to check.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Kind identifies the family of a rule.
type Kind string

const (
	KindRequired  Kind = "required"
	KindMinLength Kind = "min_length"
	KindMaxLength Kind = "max_length"
	KindPattern   Kind = "pattern"
	KindCustom    Kind = "custom"
)

// Rule is an immutable predicate over a field value with the message reported
// when it fails.
type Rule struct {
	Kind    Kind
	Name    string
	Message string
	check   func(string) bool
}

// Passes reports whether value satisfies the rule.
func (r Rule) Passes(value string) bool {
	if r.check == nil {
		return true
	}
	return r.check(value)
}

// WithMessage returns a copy of the rule reporting msg instead of its default message.
func (r Rule) WithMessage(msg string) Rule {
	r.Message = msg
	return r
}

// Required fails on empty or whitespace-only values.
func Required() Rule {
	return Rule{
		Kind:    KindRequired,
		Name:    string(KindRequired),
		Message: "This field is required.",
		check:   func(v string) bool { return !IsEmpty(v) },
	}
}

// MinLength fails when value has fewer than n characters.
func MinLength(n int) Rule {
	return Rule{
		Kind:    KindMinLength,
		Name:    string(KindMinLength),
		Message: fmt.Sprintf("Please enter at least %d characters.", n),
		check:   func(v string) bool { return utf8.RuneCountInString(v) >= n },
	}
}

// MaxLength fails when value has more than n characters.
func MaxLength(n int) Rule {
	return Rule{
		Kind:    KindMaxLength,
		Name:    string(KindMaxLength),
		Message: fmt.Sprintf("Please enter no more than %d characters.", n),
		check:   func(v string) bool { return utf8.RuneCountInString(v) <= n },
	}
}

// Pattern fails when value does not match re.
func Pattern(re *regexp.Regexp) Rule {
	return Rule{
		Kind:    KindPattern,
		Name:    string(KindPattern),
		Message: "Please check this value.",
		check:   re.MatchString,
	}
}

// Custom wraps an arbitrary predicate.
func Custom(name, message string, fn func(string) bool) Rule {
	return Rule{
		Kind:    KindCustom,
		Name:    name,
		Message: message,
		check:   fn,
	}
}

// IsEmpty reports whether value counts as empty input.
func IsEmpty(value string) bool {
	return strings.TrimSpace(value) == ""
}
