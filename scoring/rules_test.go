package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyPoint_StandardGameToLove(t *testing.T) {
	// Four straight points: 15-0, 30-0, 40-0, game. Deuce never reached.
	game := GameState{}
	wantLabels := []string{"15", "30", "40"}

	for i := 0; i < 3; i++ {
		out := ApplyPoint(game, Player1)
		require.False(t, out.Completed, "game must still be open after %d points", i+1)
		p1, p2 := Labels(out.Game)
		assert.Equal(t, wantLabels[i], p1)
		assert.Equal(t, "0", p2)
		game = out.Game
	}

	out := ApplyPoint(game, Player1)
	require.True(t, out.Completed)
	assert.Equal(t, Player1, out.Winner)
}

func TestApplyPoint_DeuceAndAdvantage(t *testing.T) {
	// Alternate to 40-40, advantage player 2, back to deuce, then player 2
	// takes two in a row.
	game := GameState{}
	for i := 0; i < 3; i++ {
		game = ApplyPoint(game, Player1).Game
		game = ApplyPoint(game, Player2).Game
	}
	p1, p2 := Labels(game)
	require.Equal(t, "40", p1)
	require.Equal(t, "40", p2)

	out := ApplyPoint(game, Player2)
	require.False(t, out.Completed)
	p1, p2 = Labels(out.Game)
	assert.Equal(t, "40", p1)
	assert.Equal(t, "Ad", p2)

	out = ApplyPoint(out.Game, Player1)
	require.False(t, out.Completed, "winning a point against advantage returns to deuce")
	p1, p2 = Labels(out.Game)
	assert.Equal(t, "40", p1)
	assert.Equal(t, "40", p2)

	out = ApplyPoint(out.Game, Player2)
	require.False(t, out.Completed)
	out = ApplyPoint(out.Game, Player2)
	require.True(t, out.Completed)
	assert.Equal(t, Player2, out.Winner)
}

func TestApplyPoint_Tiebreak(t *testing.T) {
	tests := []struct {
		name      string
		p1, p2    int
		winner    int
		completed bool
		gameWin   int
	}{
		{"closing to six six stays open", 6, 5, Player2, false, 0},
		{"six six continues", 6, 6, Player1, false, 0},
		{"seven five completes", 6, 5, Player1, true, Player1},
		{"no upper bound", 9, 8, Player2, false, 0},
		{"ten eight completes", 9, 8, Player1, true, Player1},
		{"needs two point margin at seven", 7, 7, Player2, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ApplyPoint(GameState{P1Points: tt.p1, P2Points: tt.p2, Tiebreak: true}, tt.winner)
			assert.Equal(t, tt.completed, out.Completed)
			assert.Equal(t, tt.gameWin, out.Winner)
		})
	}
}

func TestApplyPoint_PanicsOnInvalidInput(t *testing.T) {
	assert.Panics(t, func() { ApplyPoint(GameState{}, 3) })
	assert.Panics(t, func() { ApplyPoint(GameState{}, 0) })
	assert.Panics(t, func() {
		// 4-0 is already won; one more point is a caller bug.
		ApplyPoint(GameState{P1Points: 4}, Player1)
	})
}

func TestApplyGameResult(t *testing.T) {
	tests := []struct {
		name          string
		set           SetState
		winner        int
		completed     bool
		setWinner     int
		enterTiebreak bool
	}{
		{"early game", SetState{P1Games: 2, P2Games: 1}, Player1, false, 0, false},
		{"six four wins", SetState{P1Games: 5, P2Games: 4}, Player1, true, Player1, false},
		{"six five is open", SetState{P1Games: 5, P2Games: 5}, Player2, false, 0, false},
		{"seven five wins", SetState{P1Games: 5, P2Games: 6}, Player1, false, 0, false},
		{"six six enters tiebreak", SetState{P1Games: 6, P2Games: 5}, Player2, false, 0, true},
		{"tiebreak game decides at seven six", SetState{P1Games: 6, P2Games: 6}, Player1, true, Player1, false},
		{"seven six for player two", SetState{P1Games: 6, P2Games: 6}, Player2, true, Player2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ApplyGameResult(tt.set, tt.winner)
			assert.Equal(t, tt.completed, out.Completed)
			assert.Equal(t, tt.setWinner, out.Winner)
			assert.Equal(t, tt.enterTiebreak, out.EnterTiebreak)
		})
	}
}

func TestApplyGameResult_SevenFiveWins(t *testing.T) {
	out := ApplyGameResult(SetState{P1Games: 6, P2Games: 5}, Player1)
	require.True(t, out.Completed)
	assert.Equal(t, Player1, out.Winner)
	assert.Equal(t, SetState{P1Games: 7, P2Games: 5}, out.Set)
}

func TestApplySetResult(t *testing.T) {
	tests := []struct {
		name      string
		tally     SetTally
		setsToWin int
		winner    int
		completed bool
		matchWin  int
	}{
		{"first set of best of three", SetTally{}, 2, Player1, false, 0},
		{"second set completes best of three", SetTally{P1Sets: 1}, 2, Player1, true, Player1},
		{"split sets stay open", SetTally{P1Sets: 1}, 2, Player2, false, 0},
		{"third set of best of five stays open", SetTally{P1Sets: 1, P2Sets: 1}, 3, Player2, false, 0},
		{"third set completes best of five", SetTally{P1Sets: 2, P2Sets: 2}, 3, Player2, true, Player2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ApplySetResult(tt.tally, tt.setsToWin, tt.winner)
			assert.Equal(t, tt.completed, out.Completed)
			assert.Equal(t, tt.matchWin, out.Winner)
		})
	}
}

func TestServerForPoint(t *testing.T) {
	t.Run("standard game keeps one server", func(t *testing.T) {
		for played := 0; played < 8; played++ {
			assert.Equal(t, Player2, ServerForPoint(Player2, false, played))
		}
	})

	t.Run("tiebreak rotates after first point then every two", func(t *testing.T) {
		// Points served, starting with player 1: 1, 2 2, 1 1, 2 2, 1 1, ...
		want := []int{1, 2, 2, 1, 1, 2, 2, 1, 1, 2, 2, 1}
		for played, server := range want {
			assert.Equal(t, server, ServerForPoint(Player1, true, played),
				"server for point %d", played+1)
		}
	})
}

func TestNextGameServer(t *testing.T) {
	assert.Equal(t, Player2, NextGameServer(Player1))
	assert.Equal(t, Player1, NextGameServer(Player2))
}

func TestLabels_Tiebreak(t *testing.T) {
	p1, p2 := Labels(GameState{P1Points: 6, P2Points: 5, Tiebreak: true})
	assert.Equal(t, "6", p1)
	assert.Equal(t, "5", p2)
}
