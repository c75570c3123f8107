package collect

import (
	"errors"
	"fmt"
	"time"
)

type Step string

const (
	StepLogin              Step = "login"
	StepConnectionHome     Step = "connection_home"
	StepConnectionInfo     Step = "connection_info"
	StepConnectionAddress  Step = "connection_address"
	StepDownstreamChannels Step = "downstream_channels"
	StepUpstreamChannels   Step = "upstream_channels"
	StepLogs               Step = "logs"
)

var stepSubjects = map[Step]string{
	StepConnectionHome:     "connection home",
	StepConnectionInfo:     "connection info",
	StepConnectionAddress:  "connection address",
	StepDownstreamChannels: "downstream channels",
	StepUpstreamChannels:   "upstream channels",
	StepLogs:               "logs",
}

// Action describes the step in progress, e.g. "getting connection info".
func (s Step) Action() string {
	if s == StepLogin {
		return "logging in"
	}
	return "getting " + stepSubjects[s]
}

// Failure describes a failed step, e.g. "failed to get connection info".
func (s Step) Failure() string {
	if s == StepLogin {
		return "failed to log in"
	}
	return "failed to get " + stepSubjects[s]
}

// Policy decides what happens after a failed step.
type Policy int

const (
	// BestEffort records a failed step and continues with the next one.
	BestEffort Policy = iota
	// Strict stops the cycle at the first failed step.
	Strict
)

type StepResult struct {
	Step     Step
	Records  int
	Err      error
	Duration time.Duration
}

func (r StepResult) OK() bool {
	return r.Err == nil
}

// Report is the outcome of one cycle.
type Report struct {
	Started  time.Time
	Finished time.Time
	Steps    []StepResult
}

func (r Report) Failed() []StepResult {
	var failed []StepResult
	for _, step := range r.Steps {
		if !step.OK() {
			failed = append(failed, step)
		}
	}
	return failed
}

func (r Report) Records() int {
	total := 0
	for _, step := range r.Steps {
		total += step.Records
	}
	return total
}

// Err joins the errors of all failed steps, nil if every step succeeded.
func (r Report) Err() error {
	var errs []error
	for _, step := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", step.Step.Failure(), step.Err))
	}
	return errors.Join(errs...)
}
