package playerseason

// PlayerSeason identifies who a player was during one season. The same real
// player can carry a different team or jumper number in another season, so the
// key is (player id, season). Mid-season name, team or number changes are not
// modelled.
type PlayerSeason struct {
	PlayerID     int
	Season       int
	Name         string
	Team         string
	JumperNumber int
}
