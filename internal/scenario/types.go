package scenario

// ScenarioAction defines the intent under test.
type ScenarioAction struct {
	Tool   string `yaml:"tool"`
	Target string `yaml:"target"`
}

// Case is one test case within a scenario.
type Case struct {
	Action ScenarioAction `yaml:"action"`
	Expect string         `yaml:"expect"` // allow | block | require_approval
	Agent  string         `yaml:"agent,omitempty"`
	Reason string         `yaml:"reason,omitempty"`
}

// Scenario is a named collection of policy test cases.
type Scenario struct {
	Name  string `yaml:"name"`
	Cases []Case `yaml:"cases"`
}

// CaseResult is the outcome of evaluating one test case.
type CaseResult struct {
	Index    int    `json:"index"`
	Passed   bool   `json:"passed"`
	Tool     string `json:"tool"`
	Target   string `json:"target"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Reason   string `json:"reason"`
}

// RunResult is the outcome of running all cases in one scenario file.
type RunResult struct {
	File   string       `json:"file"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Cases  []CaseResult `json:"cases"`
}
