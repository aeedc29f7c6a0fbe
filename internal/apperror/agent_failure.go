package apperror

import "fmt"

// FailureReason tags why an agent could not supply a move.
type FailureReason string

const (
	FailureTimeout     FailureReason = "timeout"
	FailureUnreachable FailureReason = "unreachable"
	FailureBadResponse FailureReason = "bad_response"
)

// AgentFailure is the only error an agent gateway returns.
type AgentFailure struct {
	Reason FailureReason
	Err    error
}

func NewAgentFailure(reason FailureReason, err error) *AgentFailure {
	return &AgentFailure{Reason: reason, Err: err}
}

func (that *AgentFailure) Error() string {
	if that.Err == nil {
		return fmt.Sprintf("agent failure: %s", that.Reason)
	}

	return fmt.Sprintf("agent failure: %s: %v", that.Reason, that.Err)
}

func (that *AgentFailure) Unwrap() error {
	return that.Err
}
