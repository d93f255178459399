package dtlive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `<?xml version="1.0" encoding="ISO-8859-1"?>
<Data>
  <Game>
    <Year>2025</Year>
    <Round>12</Round>
    <Location>MCG</Location>
    <HomeTeam>Carlton</HomeTeam>
    <AwayTeam>GWS Giants</AwayTeam>
    <HomeTeamGoal>12</HomeTeamGoal>
    <HomeTeamBehind>9</HomeTeamBehind>
    <AwayTeamGoal>10</AwayTeamGoal>
    <AwayTeamBehind>14</AwayTeamBehind>
    <PercentComplete>62</PercentComplete>
    <Quarter>3</Quarter>
    <TimeInQtr>12:41</TimeInQtr>
  </Game>
  <Home>
    <Player>
      <PlayerID>4001</PlayerID>
      <Name>P. Cripps</Name>
      <JumperNumber>9</JumperNumber>
      <Selection>C</Selection>
      <IconImage></IconImage>
      <Kick>18</Kick>
      <Handball>14</Handball>
      <Mark>4</Mark>
      <Goal>1</Goal>
      <Behind>2</Behind>
      <Tackle>6</Tackle>
      <Hitout>0</Hitout>
      <FreeFor>2</FreeFor>
      <FreeAgainst>1</FreeAgainst>
    </Player>
    <Player>
      <PlayerID>4003</PlayerID>
      <Name>J. Motlop</Name>
      <JumperNumber>21</JumperNumber>
      <Selection>INT2</Selection>
      <IconImage>/images/greenvest.png</IconImage>
      <Kick>3</Kick>
      <Handball>2</Handball>
    </Player>
  </Home>
  <Away>
    <Player>
      <PlayerID>5001</PlayerID>
      <Name>T. Greene</Name>
      <JumperNumber>4</JumperNumber>
      <Selection>HFF</Selection>
      <IconImage>/images/redvest.png</IconImage>
      <Kick>11</Kick>
      <Handball>5</Handball>
      <Goal>3</Goal>
    </Player>
  </Away>
</Data>`

const legacyDocument = `<?xml version="1.0" encoding="ISO-8859-1"?>
<Data>
  <Game>
    <Year>2011</Year>
    <Round>7</Round>
    <HomeTeam>Richmond</HomeTeam>
    <AwayTeam>Geelong</AwayTeam>
    <HomeTeamGoal>9</HomeTeamGoal>
    <HomeTeamBehind>12</HomeTeamBehind>
    <AwayTeamGoal>14</AwayTeamGoal>
    <AwayTeamBehind>8</AwayTeamBehind>
    <Quarter>4</Quarter>
    <TimeInQtr>28:03</TimeInQtr>
  </Game>
</Data>`

func TestParseAndMapDocument(t *testing.T) {
	doc, err := parseDocument([]byte(sampleDocument))
	require.NoError(t, err)

	bundle := mapDocument(doc, 2863)

	m := bundle.Match
	assert.Equal(t, 2863, m.ID)
	assert.Equal(t, 2025, m.Season)
	assert.Equal(t, 12, m.Round)
	assert.Equal(t, "MCG", m.Location)
	assert.Equal(t, "Carlton", m.HomeTeam)
	assert.Equal(t, "Greater Western Sydney", m.AwayTeam)
	assert.Equal(t, 81, m.HomeScore())
	assert.Equal(t, 74, m.AwayScore())
	require.NotNil(t, m.PercentComplete)
	assert.Equal(t, 62, *m.PercentComplete)
	assert.Equal(t, "3", m.Quarter)
	assert.Equal(t, "12:41", m.Clock)

	require.Len(t, bundle.Players, 3)
	require.Len(t, bundle.PlayerStats, 3)

	byID := map[int]int{}
	for i, st := range bundle.PlayerStats {
		byID[st.PlayerID] = i
	}

	cripps := bundle.PlayerStats[byID[4001]]
	assert.Equal(t, "C", cripps.Position)
	assert.Equal(t, 32, cripps.Disposals())
	assert.False(t, cripps.SubbedOn)
	assert.False(t, cripps.SubbedOff)

	motlop := bundle.PlayerStats[byID[4003]]
	assert.Equal(t, "INT", motlop.Position)
	assert.True(t, motlop.SubbedOn)

	greene := bundle.PlayerStats[byID[5001]]
	assert.True(t, greene.SubbedOff)

	for _, p := range bundle.Players {
		if p.PlayerID == 5001 {
			assert.Equal(t, "Greater Western Sydney", p.Team)
		}
	}
	for _, st := range bundle.PlayerStats {
		assert.Equal(t, 2863, st.MatchID)
		assert.Equal(t, 2025, st.Season)
	}
}

func TestParseDocumentLegacyWithoutPercent(t *testing.T) {
	doc, err := parseDocument([]byte(legacyDocument))
	require.NoError(t, err)

	bundle := mapDocument(doc, 912)
	assert.Nil(t, bundle.Match.PercentComplete)
	assert.Equal(t, "4", bundle.Match.Quarter)
	assert.Equal(t, "28:03", bundle.Match.Clock)
	assert.Empty(t, bundle.Players)
}

func TestParseDocumentDeclaredEncodingMismatch(t *testing.T) {
	// declares ISO-8859-1 but carries a Latin-1 byte in a name; the
	// charset reader must not reject it
	raw := []byte(`<?xml version="1.0" encoding="ISO-8859-1"?><Data><Game><Year>2025</Year><Round>1</Round><HomeTeam>Carlton</HomeTeam><AwayTeam>Essendon</AwayTeam></Game><Home><Player><PlayerID>7</PlayerID><Name>Jos` + "\xe9" + `</Name></Player></Home></Data>`)

	doc, err := parseDocument(raw)
	require.NoError(t, err)

	bundle := mapDocument(doc, 1)
	require.Len(t, bundle.Players, 1)
	assert.Equal(t, "José", bundle.Players[0].Name)
}

func TestParseDocumentZeroesGarbledNumerics(t *testing.T) {
	raw := []byte(`<?xml version="1.0"?><Data><Game><Year>2025</Year><Round>x</Round><HomeTeam>Carlton</HomeTeam><AwayTeam>Essendon</AwayTeam><HomeTeamGoal></HomeTeamGoal></Game><Home><Player><PlayerID>7</PlayerID><Name>A Player</Name><Kick>n/a</Kick><Mark>4</Mark></Player></Home></Data>`)

	doc, err := parseDocument(raw)
	require.NoError(t, err)

	bundle := mapDocument(doc, 1)
	assert.Equal(t, 0, bundle.Match.Round)
	assert.Equal(t, 0, bundle.Match.HomeGoals)
	require.Len(t, bundle.PlayerStats, 1)
	assert.Equal(t, 0, bundle.PlayerStats[0].Kicks)
	assert.Equal(t, 4, bundle.PlayerStats[0].Marks)
}

func TestParseDocumentRejectsEmpty(t *testing.T) {
	_, err := parseDocument([]byte(`<?xml version="1.0"?><Data><Game></Game></Data>`))
	assert.Error(t, err)

	_, err = parseDocument([]byte(`not xml at all`))
	assert.Error(t, err)
}

func TestParseDocumentRootElementNameVaries(t *testing.T) {
	raw := []byte(`<?xml version="1.0"?><MatchFeed><Game><Year>2024</Year><Round>3</Round><HomeTeam>Hawthorn</HomeTeam><AwayTeam>Sydney</AwayTeam></Game></MatchFeed>`)

	doc, err := parseDocument(raw)
	require.NoError(t, err)
	assert.Equal(t, "Hawthorn", doc.Game.HomeTeam)
	assert.Equal(t, "Sydney", doc.Game.AwayTeam)
}
