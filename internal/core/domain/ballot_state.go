package domain

import "fmt"

type BallotState int

const (
	BallotUndecided BallotState = iota
	BallotDecided
	BallotSubmitted
	BallotAcknowledged
	BallotVerified
)

var ballotStateNames = []string{"UNDECIDED", "DECIDED", "SUBMITTED", "ACKNOWLEDGED", "VERIFIED"}

func (s BallotState) String() string {
	if s < 0 || int(s) >= len(ballotStateNames) {
		return fmt.Sprintf("BallotState(%d)", int(s))
	}
	return ballotStateNames[s]
}

func (s BallotState) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(ballotStateNames) {
		return nil, fmt.Errorf("unknown ballot state %d", int(s))
	}
	return []byte(ballotStateNames[s]), nil
}

func (s *BallotState) UnmarshalText(text []byte) error {
	for i, name := range ballotStateNames {
		if name == string(text) {
			*s = BallotState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown ballot state %q", text)
}
