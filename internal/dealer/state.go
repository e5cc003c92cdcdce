package dealer

// State is the lifecycle stage of a dealer.
type State int

// Dealer states, in order.
const (
	Uninitialized State = iota
	IDsAssigned
	PolynomialsGenerated
	SharesComputed
	Published
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case IDsAssigned:
		return "ids-assigned"
	case PolynomialsGenerated:
		return "polynomials-generated"
	case SharesComputed:
		return "shares-computed"
	case Published:
		return "published"
	default:
		return "unknown"
	}
}

// Logger receives lifecycle messages. Secret values are never logged.
type Logger interface {
	Debug(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
