package calculator

// Phase is the controller's position in one calculation attempt.
type Phase int

const (
	Idle Phase = iota
	Validating
	Syncing
	Calculating
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Syncing:
		return "syncing"
	case Calculating:
		return "calculating"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
