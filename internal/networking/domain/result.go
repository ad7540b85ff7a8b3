package domain

import "fmt"

// ResultStatus is the outcome of processing one message.
type ResultStatus string

const (
	ResultProcessed            ResultStatus = "processed"
	ResultSkippedNotNetworking ResultStatus = "skipped_not_networking"
	ResultFailed               ResultStatus = "failed"
)

// Skip reasons
const (
	ReasonMissingID            = "missing message id or user id"
	ReasonAlreadyProcessed     = "already processed"
	ReasonMissingThreadID      = "missing thread id"
	ReasonNoCounterparty       = "no counterparty address"
	ReasonThreadNotNetworking  = "thread not networking"
	ReasonEmptySummary         = "empty summary"
	ReasonClassifiedNotNetwork = "classified not networking"
)

// Result describes what the pipeline did with a message.
type Result struct {
	Status       ResultStatus `json:"status"`
	Reason       string       `json:"reason,omitempty"`
	Direction    Direction    `json:"direction,omitempty"`
	ContactEmail string       `json:"contact_email,omitempty"`
}

func Processed(direction Direction, contactEmail string) Result {
	return Result{Status: ResultProcessed, Direction: direction, ContactEmail: contactEmail}
}

func SkippedNotNetworking(reason string) Result {
	return Result{Status: ResultSkippedNotNetworking, Reason: reason}
}

func Failed(step string, err error) Result {
	return Result{Status: ResultFailed, Reason: fmt.Sprintf("%s: %v", step, err)}
}

func (r Result) IsProcessed() bool { return r.Status == ResultProcessed }

func (r Result) IsFailed() bool { return r.Status == ResultFailed }
