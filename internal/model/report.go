package model

import "time"

// CycleOutcome classifies how a rebalance cycle ended.
type CycleOutcome string

const (
	OutcomeRebalanced CycleOutcome = "REBALANCED"
	OutcomeHeld       CycleOutcome = "HELD"
	OutcomeFailed     CycleOutcome = "FAILED"
)

// CycleReport is the full record of one rebalance cycle.
type CycleReport struct {
	StartedAt    time.Time
	FinishedAt   time.Time
	Outcome      CycleOutcome
	RefSymbol    string
	QuoteAsset   string
	RefReturn    float64
	RegimePassed bool
	Scanned      int
	Skipped      int
	Selected     []string
	Sold         []Fill
	Bought       []Fill
	QuoteBalance float64
	Err          string
}
