package server

import (
	"context"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/blef/internal/game"
	"github.com/lox/blef/internal/randutil"
	"github.com/lox/blef/internal/store"
)

// testLogger creates a logger that discards output for tests
func testLogger() *log.Logger {
	return log.New(io.Discard)
}

type agentSet map[string]bool

func (a agentSet) Has(name string) bool { return a[name] }

type fixture struct {
	service *GameService
	memory  *store.Memory
	clock   *quartz.Mock
	hub     *Hub
	server  *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	clock := quartz.NewMock(t)
	svc := NewGameService(ServiceConfig{
		Games:    mem,
		Archives: mem,
		Agents:   agentSet{"random": true},
		Clock:    clock,
		Rand:     randutil.NewLocked(randutil.New(1)),
		Logger:   testLogger(),
	})
	hub := NewHub(svc, clock, testLogger())
	svc.Subscribe(hub)
	srv := NewServer(svc, hub, testLogger(), DefaultOptions())
	return &fixture{service: svc, memory: mem, clock: clock, hub: hub, server: srv}
}

func (f *fixture) httpServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(f.server.Handler())
	t.Cleanup(func() {
		f.hub.Close()
		ts.Close()
	})
	return ts
}

// startedGame creates a running two player game and returns its id and the
// player ids in seating order.
func (f *fixture) startedGame(t *testing.T, nicknames ...string) (string, []string) {
	t.Helper()
	ctx := context.Background()
	if len(nicknames) == 0 {
		nicknames = []string{"alice", "bob"}
	}
	gameID, err := f.service.CreateGame(ctx)
	require.NoError(t, err)

	ids := map[string]string{}
	var admin string
	for _, n := range nicknames {
		id, err := f.service.JoinGame(ctx, gameID, n)
		require.NoError(t, err)
		ids[n] = id
		if admin == "" {
			admin = id
		}
	}
	require.NoError(t, f.service.StartGame(ctx, gameID, admin))

	g, err := f.service.Snapshot(ctx, gameID)
	require.NoError(t, err)
	seated := make([]string, len(g.Players))
	for i, p := range g.Players {
		seated[i] = ids[p.Nickname]
	}
	return gameID, seated
}

// recorder collects updates published by the service.
type recorder struct {
	mu      sync.Mutex
	updates []game.Update
}

func (r *recorder) Notify(_ context.Context, u game.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recorder) all() []game.Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]game.Update(nil), r.updates...)
}
