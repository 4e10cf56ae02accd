package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/courtside/match-scoring/models"
	"github.com/courtside/match-scoring/repositories"
)

// memStore backs the repository fakes with plain maps. Entities are copied
// on the way in and out so tests cannot alias live store state.
type memStore struct {
	mu      sync.Mutex
	matches map[int]*models.Match
	sets    map[int]*models.Set
	games   map[int]*models.Game
	points  map[int]*models.Point
	nextID  int
}

func newMemStore() *memStore {
	return &memStore{
		matches: make(map[int]*models.Match),
		sets:    make(map[int]*models.Set),
		games:   make(map[int]*models.Game),
		points:  make(map[int]*models.Point),
	}
}

func (s *memStore) id() int {
	s.nextID++
	return s.nextID
}

func (s *memStore) counts() (matches, sets, games, points int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matches), len(s.sets), len(s.games), len(s.points)
}

func copyMatch(m *models.Match) *models.Match {
	c := *m
	if m.Winner != nil {
		w := *m.Winner
		c.Winner = &w
	}
	return &c
}

func copySet(st *models.Set) *models.Set {
	c := *st
	if st.Winner != nil {
		w := *st.Winner
		c.Winner = &w
	}
	if st.TiebreakP1 != nil {
		v := *st.TiebreakP1
		c.TiebreakP1 = &v
	}
	if st.TiebreakP2 != nil {
		v := *st.TiebreakP2
		c.TiebreakP2 = &v
	}
	return &c
}

func copyGame(g *models.Game) *models.Game {
	c := *g
	if g.Winner != nil {
		w := *g.Winner
		c.Winner = &w
	}
	return &c
}

type fakeMatchRepo struct{ s *memStore }

func (r *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	match.ID = r.s.id()
	match.CreatedAt = time.Now()
	r.s.matches[match.ID] = copyMatch(match)
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	match, ok := r.s.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return copyMatch(match), nil
}

func (r *fakeMatchRepo) UpdateStatusWinner(_ context.Context, _ repositories.SQLExecutor, id int, status models.MatchStatus, winner *int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	match, ok := r.s.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.Status = status
	if winner != nil {
		w := *winner
		match.Winner = &w
	} else {
		match.Winner = nil
	}
	return nil
}

type fakeSetRepo struct{ s *memStore }

func (r *fakeSetRepo) Create(_ context.Context, _ repositories.SQLExecutor, set *models.Set) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set.ID = r.s.id()
	r.s.sets[set.ID] = copySet(set)
	return nil
}

func (r *fakeSetRepo) GetCurrent(_ context.Context, _ repositories.SQLExecutor, matchID int) (*models.Set, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, set := range r.s.sets {
		if set.MatchID == matchID && set.Winner == nil {
			return copySet(set), nil
		}
	}
	return nil, repositories.ErrSetNotFound
}

func (r *fakeSetRepo) GetByNumber(_ context.Context, _ repositories.SQLExecutor, matchID, setNumber int) (*models.Set, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, set := range r.s.sets {
		if set.MatchID == matchID && set.SetNumber == setNumber {
			return copySet(set), nil
		}
	}
	return nil, repositories.ErrSetNotFound
}

func (r *fakeSetRepo) ListByMatch(_ context.Context, _ repositories.SQLExecutor, matchID int) ([]*models.Set, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sets := make([]*models.Set, 0)
	for _, set := range r.s.sets {
		if set.MatchID == matchID {
			sets = append(sets, copySet(set))
		}
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].SetNumber < sets[j].SetNumber })
	return sets, nil
}

func (r *fakeSetRepo) Update(_ context.Context, _ repositories.SQLExecutor, set *models.Set) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sets[set.ID]; !ok {
		return repositories.ErrSetNotFound
	}
	r.s.sets[set.ID] = copySet(set)
	return nil
}

type fakeGameRepo struct{ s *memStore }

func (r *fakeGameRepo) Create(_ context.Context, _ repositories.SQLExecutor, game *models.Game) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	game.ID = r.s.id()
	r.s.games[game.ID] = copyGame(game)
	return nil
}

func (r *fakeGameRepo) GetCurrent(_ context.Context, _ repositories.SQLExecutor, setID int) (*models.Game, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, game := range r.s.games {
		if game.SetID == setID && game.Winner == nil {
			return copyGame(game), nil
		}
	}
	return nil, repositories.ErrGameNotFound
}

func (r *fakeGameRepo) GetByNumber(_ context.Context, _ repositories.SQLExecutor, setID, gameNumber int) (*models.Game, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, game := range r.s.games {
		if game.SetID == setID && game.GameNumber == gameNumber {
			return copyGame(game), nil
		}
	}
	return nil, repositories.ErrGameNotFound
}

func (r *fakeGameRepo) GetLast(_ context.Context, _ repositories.SQLExecutor, setID int) (*models.Game, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var last *models.Game
	for _, game := range r.s.games {
		if game.SetID == setID && (last == nil || game.GameNumber > last.GameNumber) {
			last = game
		}
	}
	if last == nil {
		return nil, repositories.ErrGameNotFound
	}
	return copyGame(last), nil
}

func (r *fakeGameRepo) ListBySet(_ context.Context, _ repositories.SQLExecutor, setID int) ([]*models.Game, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	games := make([]*models.Game, 0)
	for _, game := range r.s.games {
		if game.SetID == setID {
			games = append(games, copyGame(game))
		}
	}
	sort.Slice(games, func(i, j int) bool { return games[i].GameNumber < games[j].GameNumber })
	return games, nil
}

func (r *fakeGameRepo) Update(_ context.Context, _ repositories.SQLExecutor, game *models.Game) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.games[game.ID]; !ok {
		return repositories.ErrGameNotFound
	}
	r.s.games[game.ID] = copyGame(game)
	return nil
}

type fakePointRepo struct{ s *memStore }

func (r *fakePointRepo) Append(_ context.Context, _ repositories.SQLExecutor, point *models.Point) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.points {
		if existing.GameID == point.GameID && existing.PointNumber == point.PointNumber {
			return repositories.ErrPointConflict
		}
	}
	point.ID = r.s.id()
	point.CreatedAt = time.Now()
	c := *point
	r.s.points[point.ID] = &c
	return nil
}

func (r *fakePointRepo) ListByGame(_ context.Context, _ repositories.SQLExecutor, gameID int) ([]*models.Point, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	points := make([]*models.Point, 0)
	for _, point := range r.s.points {
		if point.GameID == gameID {
			c := *point
			points = append(points, &c)
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].PointNumber < points[j].PointNumber })
	return points, nil
}

// fakeTxRunner executes the callback directly against the fakes. When
// failErr is set it fails without running the callback, modeling a write
// that never commits.
type fakeTxRunner struct {
	failErr error
}

func (r *fakeTxRunner) RunTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	if r.failErr != nil {
		return r.failErr
	}
	return fn(nil)
}

type publishedEvent struct {
	matchID   int
	eventType string
	payload   interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(matchID int, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{matchID: matchID, eventType: eventType, payload: payload})
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fakeArchiver struct {
	done chan int
}

func (a *fakeArchiver) ArchiveMatch(_ context.Context, matchID int) {
	select {
	case a.done <- matchID:
	default:
	}
}
