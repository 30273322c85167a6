package form

import (
	"github.com/aretw0/textremind/pkg/reactive"
	"github.com/aretw0/textremind/pkg/validation"
)

// Field is one text input with its validation rules.
type Field struct {
	name   string
	rules  []validation.Rule
	value  *reactive.Cell[string]
	errors *reactive.Computed[[]string]
}

// NewField creates an empty field.
func NewField(rt *reactive.Runtime, name string, rules ...validation.Rule) *Field {
	f := &Field{
		name:  name,
		rules: rules,
		value: reactive.NewCell(rt, ""),
	}
	f.errors = reactive.NewComputed(rt, func() []string {
		return validation.Validate(f.value.Get(), f.rules)
	})
	return f
}

// Name returns the field name used in error sets.
func (f *Field) Name() string { return f.name }

// Rules returns the declared rules.
func (f *Field) Rules() []validation.Rule { return f.rules }

// Get returns the current value.
func (f *Field) Get() string { return f.value.Get() }

// Peek returns the current value without recording a read.
func (f *Field) Peek() string { return f.value.Peek() }

// Set replaces the value.
func (f *Field) Set(v string) { f.value.Set(v) }

// Errors returns the messages of every failing rule for the current value.
func (f *Field) Errors() []string { return f.errors.Get() }

// Valid reports whether the current value passes every rule.
func (f *Field) Valid() bool { return len(f.errors.Get()) == 0 }

// Satisfied reports whether the field holds a non-empty, valid value.
func (f *Field) Satisfied() bool {
	return !validation.IsEmpty(f.value.Get()) && f.Valid()
}

// Subscribe calls fn with the new value after every change.
func (f *Field) Subscribe(fn func(string)) func() {
	return f.value.Subscribe(fn)
}

// SubscribeErrors calls fn with the new error list after every change of the value.
func (f *Field) SubscribeErrors(fn func([]string)) func() {
	return f.errors.Subscribe(fn)
}
