package transaction

// Status is the transaction lifecycle state. The processing pipeline only
// ever moves pending -> processing or pending -> failed; later states
// (settlement, refunds) belong to other services.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusFailed     Status = "failed"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusFailed:
		return true
	default:
		return false
	}
}

func NewStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// Metadata is the open key-value audit trail accumulated by the payment job:
// gateway responses, failure reasons, per-phase timestamps.
type Metadata map[string]any

// Merge returns a copy with the given keys overlaid; the receiver is not
// mutated so callers can retry a CAS write with fresh state.
func (m Metadata) Merge(other Metadata) Metadata {
	merged := make(Metadata, len(m)+len(other))
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}
