package scoring

// Replay folds an ordered ledger of point winners into the state a game
// reaches when the same points are applied live, one at a time. A ledger
// that keeps going after the game is decided is corrupt and panics, the
// same as applying a live point to a finished game.
func Replay(tiebreak bool, pointWinners []int) GameOutcome {
	out := GameOutcome{Game: GameState{Tiebreak: tiebreak}}
	for _, w := range pointWinners {
		out = ApplyPoint(out.Game, w)
	}
	return out
}
