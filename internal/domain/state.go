package domain

// ClaimState is the stage a submission is in.
type ClaimState string

const (
	StateIdle       ClaimState = "idle"
	StateValidating ClaimState = "validating"
	StateUploading  ClaimState = "uploading"
	StateClaiming   ClaimState = "claiming"
	StateSucceeded  ClaimState = "succeeded"
	StateFailed     ClaimState = "failed"
)

// InFlight reports whether a submission is currently running.
func (s ClaimState) InFlight() bool {
	return s == StateValidating || s == StateUploading || s == StateClaiming
}
