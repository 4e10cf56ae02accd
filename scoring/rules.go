package scoring

import (
	"fmt"
	"strconv"
)

// Player slots. All winner values in this package are one of these.
const (
	Player1 = 1
	Player2 = 2
)

// ValidPlayer reports whether p is a usable player slot.
func ValidPlayer(p int) bool {
	return p == Player1 || p == Player2
}

// Opponent returns the other player slot.
func Opponent(p int) int {
	return 3 - p
}

const (
	pointsToWinGame     = 4
	pointsToWinTiebreak = 7
	gamesToWinSet       = 6
	tiebreakSetGames    = 7
)

// GameState is the point score of one game. Points are raw counters for
// both kinds of game; the 0/15/30/40/Ad ordinals are derived by Labels.
type GameState struct {
	P1Points int
	P2Points int
	Tiebreak bool
}

func (g GameState) points(p int) int {
	if p == Player1 {
		return g.P1Points
	}
	return g.P2Points
}

// winner returns the player who has won the game, or 0 while it is open.
func (g GameState) winner() int {
	target := pointsToWinGame
	if g.Tiebreak {
		target = pointsToWinTiebreak
	}
	switch {
	case g.P1Points >= target && g.P1Points-g.P2Points >= 2:
		return Player1
	case g.P2Points >= target && g.P2Points-g.P1Points >= 2:
		return Player2
	}
	return 0
}

type GameOutcome struct {
	Game      GameState
	Completed bool
	Winner    int
}

// ApplyPoint awards one point and reports whether the game is now over.
// Calling it with an invalid player slot or an already-completed game is a
// programming error and panics: callers gate both before applying.
func ApplyPoint(game GameState, pointWinner int) GameOutcome {
	if !ValidPlayer(pointWinner) {
		panic(fmt.Sprintf("scoring: invalid point winner %d", pointWinner))
	}
	if w := game.winner(); w != 0 {
		panic(fmt.Sprintf("scoring: point applied to game already won by player %d", w))
	}

	if pointWinner == Player1 {
		game.P1Points++
	} else {
		game.P2Points++
	}

	w := game.winner()
	return GameOutcome{
		Game:      game,
		Completed: w != 0,
		Winner:    w,
	}
}

// SetState is the game score of one set.
type SetState struct {
	P1Games int
	P2Games int
}

type SetOutcome struct {
	Set       SetState
	Completed bool
	Winner    int
	// EnterTiebreak is set exactly when the games reach 6-6: the next game
	// created for this set must be a tiebreak.
	EnterTiebreak bool
}

// ApplyGameResult credits a finished game to its winner. A set is won at six
// games with a two-game margin, or at seven games after a 6-6 tiebreak.
func ApplyGameResult(set SetState, gameWinner int) SetOutcome {
	if !ValidPlayer(gameWinner) {
		panic(fmt.Sprintf("scoring: invalid game winner %d", gameWinner))
	}

	if gameWinner == Player1 {
		set.P1Games++
	} else {
		set.P2Games++
	}

	out := SetOutcome{Set: set}
	switch {
	case set.P1Games >= gamesToWinSet && set.P1Games-set.P2Games >= 2,
		set.P1Games == tiebreakSetGames:
		out.Completed = true
		out.Winner = Player1
	case set.P2Games >= gamesToWinSet && set.P2Games-set.P1Games >= 2,
		set.P2Games == tiebreakSetGames:
		out.Completed = true
		out.Winner = Player2
	case set.P1Games == gamesToWinSet && set.P2Games == gamesToWinSet:
		out.EnterTiebreak = true
	}
	return out
}

// SetTally is the set score of one match.
type SetTally struct {
	P1Sets int
	P2Sets int
}

type MatchOutcome struct {
	Tally     SetTally
	Completed bool
	Winner    int
}

// ApplySetResult credits a finished set to its winner. The match completes
// the moment one side reaches setsToWin (2 for best-of-3, 3 for best-of-5).
func ApplySetResult(tally SetTally, setsToWin, setWinner int) MatchOutcome {
	if !ValidPlayer(setWinner) {
		panic(fmt.Sprintf("scoring: invalid set winner %d", setWinner))
	}

	if setWinner == Player1 {
		tally.P1Sets++
	} else {
		tally.P2Sets++
	}

	out := MatchOutcome{Tally: tally}
	if tally.P1Sets >= setsToWin {
		out.Completed = true
		out.Winner = Player1
	} else if tally.P2Sets >= setsToWin {
		out.Completed = true
		out.Winner = Player2
	}
	return out
}

// NextGameServer returns the server of the game following one served first
// by lastServer. Serve alternates every game, including into a new set and
// out of a tiebreak.
func NextGameServer(lastServer int) int {
	return Opponent(lastServer)
}

// ServerForPoint returns the player serving the next point of a game whose
// first point is served by firstServer, given how many points have already
// been played. In a standard game the first server serves throughout; in a
// tiebreak serve changes after the first point and then every two points.
func ServerForPoint(firstServer int, tiebreak bool, pointsPlayed int) int {
	if !tiebreak {
		return firstServer
	}
	if ((pointsPlayed+1)/2)%2 == 0 {
		return firstServer
	}
	return Opponent(firstServer)
}

var standardLabels = [4]string{"0", "15", "30", "40"}

// Labels renders the presentation score of an in-progress or just-completed
// game. Tiebreak games use the raw counters.
func Labels(game GameState) (p1, p2 string) {
	if game.Tiebreak {
		return strconv.Itoa(game.P1Points), strconv.Itoa(game.P2Points)
	}

	// Deuce and advantage territory: both sides at 40 or beyond.
	if game.P1Points >= 3 && game.P2Points >= 3 {
		switch {
		case game.P1Points == game.P2Points:
			return "40", "40"
		case game.P1Points > game.P2Points:
			return "Ad", "40"
		default:
			return "40", "Ad"
		}
	}

	return standardLabels[min(game.P1Points, 3)], standardLabels[min(game.P2Points, 3)]
}
