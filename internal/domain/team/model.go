package team

// Team is immutable reference data, seeded once at startup.
type Team struct {
	Name     string
	Nickname string
}
