package enums

import "fmt"

// ABCClass maps to the abc_class enum in Postgres.
type ABCClass string

const (
	ABCClassHighValue ABCClass = "A"
	ABCClassMedium    ABCClass = "B"
	ABCClassLow       ABCClass = "C"
)

// IsValid reports whether the value is A, B or C.
func (c ABCClass) IsValid() bool {
	switch c {
	case ABCClassHighValue, ABCClassMedium, ABCClassLow:
		return true
	}
	return false
}

// ParseABCClass converts raw input into ABCClass.
func ParseABCClass(value string) (ABCClass, error) {
	candidate := ABCClass(value)
	if !candidate.IsValid() {
		return "", fmt.Errorf("invalid abc classification %q", value)
	}
	return candidate, nil
}
