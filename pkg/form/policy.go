package form

import "fmt"

// Policy decides which verification outcome unlocks scheduling.
type Policy int

const (
	// CodePath accepts an already verified number or a matching code.
	CodePath Policy = iota
	// PasswordPath accepts a matching code, or a verified number together with
	// its matching password.
	PasswordPath
)

func (p Policy) String() string {
	switch p {
	case CodePath:
		return "code"
	case PasswordPath:
		return "password"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps "code" or "password" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "code":
		return CodePath, nil
	case "password":
		return PasswordPath, nil
	default:
		return CodePath, fmt.Errorf("unknown verification policy %q", s)
	}
}

func (p Policy) allows(numberVerified, codeMatches, passwordMatches bool) bool {
	if p == PasswordPath {
		return codeMatches || (numberVerified && passwordMatches)
	}
	return numberVerified || codeMatches
}
