package validation

// Validate returns the messages of every rule value fails, in declaration order.
// Empty values are only checked against Required rules.
func Validate(value string, rules []Rule) []string {
	var errs []string
	empty := IsEmpty(value)
	for _, r := range rules {
		if empty && r.Kind != KindRequired {
			continue
		}
		if !r.Passes(value) {
			errs = append(errs, r.Message)
		}
	}
	return errs
}

// IsRequired reports whether rules contain a Required rule.
func IsRequired(rules []Rule) bool {
	for _, r := range rules {
		if r.Kind == KindRequired {
			return true
		}
	}
	return false
}
