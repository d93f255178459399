package match

// Match is one game's result line as reported by the feed. Goals and behinds
// are the source of truth; scores are always derived from them.
type Match struct {
	ID          int
	Season      int
	Round       int
	Location    string
	HomeTeam    string
	AwayTeam    string
	HomeGoals   int
	HomeBehinds int
	AwayGoals   int
	AwayBehinds int
	Live        bool

	// Clock is the raw time-remaining string for the current quarter.
	// PercentComplete is nil for feed eras that never report it.
	Quarter         string
	Clock           string
	PercentComplete *int
}

func (m Match) HomeScore() int {
	return 6*m.HomeGoals + m.HomeBehinds
}

func (m Match) AwayScore() int {
	return 6*m.AwayGoals + m.AwayBehinds
}

func (m Match) Drawn() bool {
	return m.HomeScore() == m.AwayScore()
}
