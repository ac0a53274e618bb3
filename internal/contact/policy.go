package contact

// Step names one stage of the submission pipeline.
type Step string

const (
	StepRateLimit Step = "rate_limit"
	StepStoreLead Step = "store_lead"
	StepNotify    Step = "notify"
)

// Policy decides what a step failure does to the request.
type Policy int

const (
	// Advisory failures are logged and the pipeline continues.
	Advisory Policy = iota
	// Fatal failures end the request with a 500.
	Fatal
)

func (p Policy) String() string {
	if p == Fatal {
		return "fatal"
	}
	return "advisory"
}

// DefaultPolicies keeps leads flowing when the quota store or mail provider
// is down, and refuses to acknowledge a submission that was not persisted.
func DefaultPolicies() PolicyTable {
	return PolicyTable{
		StepRateLimit: Advisory,
		StepStoreLead: Fatal,
		StepNotify:    Advisory,
	}
}

// PolicyTable resolves step policies. Steps missing from the table are fatal.
type PolicyTable map[Step]Policy

func (t PolicyTable) For(step Step) Policy {
	if p, ok := t[step]; ok {
		return p
	}
	return Fatal
}
