package diag

// Severity ranks how serious a diagnostic is. The numeric order matters:
// Bag.HasErrors and the bag sort comparator both rely on larger values
// meaning more severe.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

// String returns the canonical upper-case label used in log output.
func (s Severity) String() string {
	switch s {
	case SevError:
		return "ERROR"
	case SevWarning:
		return "WARNING"
	case SevInfo:
		return "INFO"
	default:
		return "UNKNOWN"
	}
}
