package ladder

// Entry is one team's cumulative standing for a season through a given round,
// keyed by (team, season, round).
type Entry struct {
	Team          string
	Season        int
	Round         int
	Wins          int
	Losses        int
	Draws         int
	PointsFor     int
	PointsAgainst int
}

func (e Entry) Points() int {
	return 4*e.Wins + 2*e.Draws
}

// Percent is the league percentage, 100 * points-for / points-against,
// defined as zero when points-against is zero.
func (e Entry) Percent() float64 {
	if e.PointsAgainst == 0 {
		return 0
	}
	return 100 * float64(e.PointsFor) / float64(e.PointsAgainst)
}
