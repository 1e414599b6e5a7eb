package preorder

// State is one step of the preorder wizard. The flow is linear:
// type, email, phone, company (wholesale only), location, date,
// time, summary.
type State string

const (
	StateSelectingType     State = "selecting_type"
	StateEnteringEmail     State = "entering_email"
	StateEnteringPhone     State = "entering_phone"
	StateEnteringCompany   State = "entering_company"
	StateSelectingLocation State = "selecting_location"
	StateSelectingDate     State = "selecting_date"
	StateSelectingTime     State = "selecting_time"
	StateConfirming        State = "confirming"
)

func (s State) IsValid() bool {
	switch s {
	case StateSelectingType, StateEnteringEmail, StateEnteringPhone,
		StateEnteringCompany, StateSelectingLocation, StateSelectingDate,
		StateSelectingTime, StateConfirming:
		return true
	}
	return false
}

func (s State) String() string {
	return string(s)
}

// order gives each state a rank so back-navigation can tell whether a
// rewind target precedes the current step.
func (s State) order() int {
	switch s {
	case StateSelectingType:
		return 0
	case StateEnteringEmail:
		return 1
	case StateEnteringPhone:
		return 2
	case StateEnteringCompany:
		return 3
	case StateSelectingLocation:
		return 4
	case StateSelectingDate:
		return 5
	case StateSelectingTime:
		return 6
	case StateConfirming:
		return 7
	}
	return -1
}
