package enums

import "fmt"

// CustomerType distinguishes retail buyers from wholesale accounts.
type CustomerType string

const (
	CustomerTypeIndividual CustomerType = "individual"
	CustomerTypeWholesale  CustomerType = "wholesale"
)

var validCustomerTypes = []CustomerType{
	CustomerTypeIndividual,
	CustomerTypeWholesale,
}

// String implements fmt.Stringer.
func (c CustomerType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CustomerType.
func (c CustomerType) IsValid() bool {
	for _, candidate := range validCustomerTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCustomerType converts raw input into a CustomerType.
func ParseCustomerType(value string) (CustomerType, error) {
	for _, candidate := range validCustomerTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid customer type %q", value)
}
