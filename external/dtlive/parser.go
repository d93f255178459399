package dtlive

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/footycharts/footycharts/internal/domain/match"
	"github.com/footycharts/footycharts/internal/domain/playerseason"
	"github.com/footycharts/footycharts/internal/domain/playerstat"
	"github.com/footycharts/footycharts/internal/usecase"
)

// The feed names one club inconsistently across seasons; storage uses the
// long form everywhere.
var teamAliases = map[string]string{
	"GWS Giants": "Greater Western Sydney",
}

const (
	subbedOnIcon  = "greenvest.png"
	subbedOffIcon = "redvest.png"
)

// feedInt decodes like an int but treats empty or garbled element content as
// zero. The feed omits or mangles counting stats often enough that one bad
// cell must not reject the whole document.
type feedInt int

func (v *feedInt) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var raw string
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		*v = 0
		return nil
	}
	*v = feedInt(n)
	return nil
}

// The feed wraps each document in a root element whose name varies; match
// properties sit under a Game child with the Home and Away player lists as
// its siblings, not nested inside it. No XMLName on the wrapper so any root
// element is accepted.
type feedDocument struct {
	Game feedGame `xml:"Game"`
	Home feedSide `xml:"Home"`
	Away feedSide `xml:"Away"`
}

type feedGame struct {
	Year            feedInt  `xml:"Year"`
	Round           feedInt  `xml:"Round"`
	Location        string   `xml:"Location"`
	HomeTeam        string   `xml:"HomeTeam"`
	AwayTeam        string   `xml:"AwayTeam"`
	HomeTeamGoal    feedInt  `xml:"HomeTeamGoal"`
	HomeTeamBehind  feedInt  `xml:"HomeTeamBehind"`
	AwayTeamGoal    feedInt  `xml:"AwayTeamGoal"`
	AwayTeamBehind  feedInt  `xml:"AwayTeamBehind"`
	PercentComplete *feedInt `xml:"PercentComplete"`
	Quarter         string   `xml:"Quarter"`
	TimeInQtr       string   `xml:"TimeInQtr"`
}

type feedSide struct {
	Players []feedPlayer `xml:"Player"`
}

type feedPlayer struct {
	PlayerID     feedInt `xml:"PlayerID"`
	Name         string  `xml:"Name"`
	JumperNumber feedInt `xml:"JumperNumber"`
	Selection    string  `xml:"Selection"`
	IconImage    string  `xml:"IconImage"`
	Kick         feedInt `xml:"Kick"`
	Handball     feedInt `xml:"Handball"`
	Mark         feedInt `xml:"Mark"`
	Goal         feedInt `xml:"Goal"`
	Behind       feedInt `xml:"Behind"`
	Tackle       feedInt `xml:"Tackle"`
	Hitout       feedInt `xml:"Hitout"`
	FreeFor      feedInt `xml:"FreeFor"`
	FreeAgainst  feedInt `xml:"FreeAgainst"`
}

// parseDocument decodes a feed XML document. The feed declares encodings it
// does not always honour, so decoding goes through a charset-detecting reader
// instead of the strict default.
func parseDocument(raw []byte) (feedDocument, error) {
	var doc feedDocument
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	decoder.CharsetReader = charset.NewReaderLabel
	if err := decoder.Decode(&doc); err != nil {
		return feedDocument{}, fmt.Errorf("decode xml: %w", err)
	}
	if doc.Game.HomeTeam == "" && doc.Game.AwayTeam == "" {
		return feedDocument{}, fmt.Errorf("document has no team names")
	}
	return doc, nil
}

func mapDocument(doc feedDocument, matchID int) usecase.FeedBundle {
	game := doc.Game
	homeTeam := canonicalTeam(game.HomeTeam)
	awayTeam := canonicalTeam(game.AwayTeam)

	var percent *int
	if game.PercentComplete != nil {
		p := int(*game.PercentComplete)
		percent = &p
	}

	bundle := usecase.FeedBundle{
		Match: match.Match{
			ID:              matchID,
			Season:          int(game.Year),
			Round:           int(game.Round),
			Location:        strings.TrimSpace(game.Location),
			HomeTeam:        homeTeam,
			AwayTeam:        awayTeam,
			HomeGoals:       int(game.HomeTeamGoal),
			HomeBehinds:     int(game.HomeTeamBehind),
			AwayGoals:       int(game.AwayTeamGoal),
			AwayBehinds:     int(game.AwayTeamBehind),
			Quarter:         strings.TrimSpace(game.Quarter),
			Clock:           strings.TrimSpace(game.TimeInQtr),
			PercentComplete: percent,
		},
	}

	appendSide(&bundle, doc.Home.Players, homeTeam, matchID, int(game.Year))
	appendSide(&bundle, doc.Away.Players, awayTeam, matchID, int(game.Year))
	return bundle
}

func appendSide(bundle *usecase.FeedBundle, players []feedPlayer, teamName string, matchID, season int) {
	for _, p := range players {
		if p.PlayerID <= 0 {
			continue
		}
		bundle.Players = append(bundle.Players, playerseason.PlayerSeason{
			PlayerID:     int(p.PlayerID),
			Season:       season,
			Name:         strings.TrimSpace(p.Name),
			Team:         teamName,
			JumperNumber: int(p.JumperNumber),
		})
		bundle.PlayerStats = append(bundle.PlayerStats, playerstat.MatchStat{
			MatchID:      matchID,
			PlayerID:     int(p.PlayerID),
			Season:       season,
			Position:     canonicalPosition(p.Selection),
			Kicks:        int(p.Kick),
			Handballs:    int(p.Handball),
			Marks:        int(p.Mark),
			Goals:        int(p.Goal),
			Behinds:      int(p.Behind),
			Tackles:      int(p.Tackle),
			Hitouts:      int(p.Hitout),
			FreesFor:     int(p.FreeFor),
			FreesAgainst: int(p.FreeAgainst),
			SubbedOn:     strings.Contains(p.IconImage, subbedOnIcon),
			SubbedOff:    strings.Contains(p.IconImage, subbedOffIcon),
		})
	}
}

func canonicalTeam(name string) string {
	name = strings.TrimSpace(name)
	if alias, ok := teamAliases[name]; ok {
		return alias
	}
	return name
}

// canonicalPosition collapses numbered interchange slots (INT1, INT2, ...)
// into a single bench position.
func canonicalPosition(selection string) string {
	selection = strings.TrimSpace(selection)
	if strings.HasPrefix(selection, "INT") {
		return "INT"
	}
	return selection
}
