package model

import "encoding/json"

type RunState int

const RUNNING RunState = 1
const FAILED RunState = 2
const COMPLETED RunState = 3
const WAITING_DELAY RunState = 4

type StepResult struct {
	Name        string          `json:"name"`
	Data        json.RawMessage `json:"data"`
	CompletedAt int64           `json:"completedAt"`
}

type RunResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type RunContext struct {
	Id       string                `json:"id"`
	Workflow string                `json:"workflow"`
	Event    Event                 `json:"event"`
	Steps    map[string]StepResult `json:"steps"`
	State    RunState              `json:"runState"`
	TryCount int                   `json:"tryCount"`
	Result   *RunResult            `json:"result,omitempty"`
}

func (rc *RunContext) IsTerminal() bool {
	return rc.State == COMPLETED || rc.State == FAILED
}

type RunRequestType int

const NEW_RUN_EXECUTION RunRequestType = 0
const RETRY_RUN_EXECUTION RunRequestType = 1
const RESUME_RUN_EXECUTION RunRequestType = 2

type RunExecutionRequest struct {
	Workflow    string         `json:"workflow"`
	RunId       string         `json:"runId"`
	TryCount    int            `json:"tryCount"`
	SleepStep   string         `json:"sleepStep,omitempty"`
	RequestType RunRequestType `json:"requestType"`
}
