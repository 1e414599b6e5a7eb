package enums

// Intent buckets a free-text customer question for routing.
type Intent string

const (
	IntentHours       Intent = "hours"
	IntentContact     Intent = "contact"
	IntentOrderStatus Intent = "order_status"
	IntentPurchase    Intent = "purchase"
	IntentGeneral     Intent = "general"
)

var validIntents = []Intent{
	IntentHours,
	IntentContact,
	IntentOrderStatus,
	IntentPurchase,
	IntentGeneral,
}

// String implements fmt.Stringer.
func (i Intent) String() string {
	return string(i)
}

// IsValid reports whether the value is a known Intent.
func (i Intent) IsValid() bool {
	for _, candidate := range validIntents {
		if candidate == i {
			return true
		}
	}
	return false
}
