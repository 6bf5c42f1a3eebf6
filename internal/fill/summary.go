package fill

import (
	"fmt"
	"time"
)

// Outcome is what happened to one examined element
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeFilled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFilled:
		return "filled"
	case OutcomeFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// Result records the decision taken for one element
type Result struct {
	Element  Element
	Category Category
	Outcome  Outcome
	Reason   SkipReason // set when skipped
	Err      error      // set when failed
	Sweep    int
}

// Summary aggregates the results of one execution
type Summary struct {
	Sweeps   int
	Filled   int
	Skipped  int
	Failed   int
	Results  []Result
	Duration time.Duration
	// Err is set when discovery itself stopped the run early
	Err error
}

func (s *Summary) add(r Result) {
	switch r.Outcome {
	case OutcomeFilled:
		s.Filled++
	case OutcomeFailed:
		s.Failed++
	default:
		s.Skipped++
	}
	s.Results = append(s.Results, r)
}

// Failures returns one message per failed element
func (s *Summary) Failures() []string {
	var msgs []string
	for _, r := range s.Results {
		if r.Outcome == OutcomeFailed {
			msgs = append(msgs, fmt.Sprintf("%s: %v", r.Element, r.Err))
		}
	}
	return msgs
}

// Lookup returns the result recorded for h, if any
func (s *Summary) Lookup(h Handle) (Result, bool) {
	for _, r := range s.Results {
		if r.Element.Handle == h {
			return r, true
		}
	}
	return Result{}, false
}
