package playerstat

// MatchStat is one player's box-score line for one match, keyed by
// (match id, player id). Overwritten on every poll while the match is live.
type MatchStat struct {
	MatchID      int
	PlayerID     int
	Season       int
	Position     string
	Kicks        int
	Handballs    int
	Marks        int
	Goals        int
	Behinds      int
	Tackles      int
	Hitouts      int
	FreesFor     int
	FreesAgainst int
	SubbedOn     bool
	SubbedOff    bool
}

func (s MatchStat) Disposals() int {
	return s.Kicks + s.Handballs
}
