// Package tui renders a live Blef game in the terminal. It follows the views
// pushed by the server and, when watching as a player, submits claims typed
// into the input line.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/blef/internal/client"
	"github.com/lox/blef/internal/game"
)

// Options wire the model to a server.
type Options struct {
	// Play submits an action for the watching player. Nil makes the model a
	// read-only spectator.
	Play func(actionID int) error
	// FetchRound loads a completed round so its resolution can be logged.
	FetchRound func(round int) (game.View, error)
	Logger     *log.Logger
}

type eventMsg client.Event

type streamClosedMsg struct{}

type playedMsg struct{ err error }

type roundMsg struct {
	view game.View
	err  error
}

// Model is the bubbletea model for `blef watch`.
type Model struct {
	events <-chan client.Event
	opts   Options
	logger *log.Logger

	view  *game.View
	lobby []game.Summary
	lines []string

	logViewport viewport.Model
	input       textinput.Model
	status      string

	width    int
	height   int
	quitting bool
}

// New creates a model that reads from events.
func New(events <-chan client.Event, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	vp := viewport.New(10, 5)

	ti := textinput.New()
	ti.Placeholder = "claim, e.g. \"pair of kings\", an action id, or \"check\""
	ti.Prompt = "> "
	ti.CharLimit = 64
	if opts.Play != nil {
		ti.Focus()
	}

	return &Model{
		events:      events,
		opts:        opts,
		logger:      opts.Logger.WithPrefix("tui"),
		logViewport: vp,
		input:       ti,
	}
}

// Init starts listening for pushed views.
func (m *Model) Init() tea.Cmd {
	if m.opts.Play != nil {
		return tea.Batch(textinput.Blink, m.waitForEvent())
	}
	return m.waitForEvent()
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg(ev)
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if cmd := m.submit(strings.TrimSpace(m.input.Value())); cmd != nil {
				cmds = append(cmds, cmd)
			}
			m.input.SetValue("")
		case "pgup":
			m.logViewport.HalfPageUp()
		case "pgdown":
			m.logViewport.HalfPageDown()
		}

	case eventMsg:
		if cmd := m.fetchResolved(client.Event(msg)); cmd != nil {
			cmds = append(cmds, cmd)
		}
		m.apply(client.Event(msg))
		cmds = append(cmds, m.waitForEvent())

	case streamClosedMsg:
		m.addLine(InfoStyle.Render("Connection closed"))
		m.status = "disconnected"

	case playedMsg:
		if msg.err != nil {
			m.status = ErrorStyle.Render(msg.err.Error())
		} else {
			m.status = ""
		}

	case roundMsg:
		if msg.err != nil {
			m.logger.Warn("Failed to load round", "error", msg.err)
		} else {
			m.logResolution(msg.view)
		}
	}

	if m.opts.Play != nil {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit parses text into an action and plays it.
func (m *Model) submit(text string) tea.Cmd {
	if m.opts.Play == nil || text == "" {
		return nil
	}
	id, err := ParseAction(text)
	if err != nil {
		m.status = ErrorStyle.Render(err.Error())
		return nil
	}
	play := m.opts.Play
	return func() tea.Msg {
		return playedMsg{err: play(id)}
	}
}

// fetchResolved loads the last resolved round when ev is the first view
// received. Later resolutions are pushed as round events.
func (m *Model) fetchResolved(ev client.Event) tea.Cmd {
	if ev.View == nil || m.view != nil || m.opts.FetchRound == nil {
		return nil
	}
	v := ev.View
	resolved := 0
	switch {
	case v.Status == game.StatusFinished:
		resolved = v.RoundNumber
	case v.Status == game.StatusRunning && v.RoundNumber > 1:
		resolved = v.RoundNumber - 1
	}
	if resolved == 0 {
		return nil
	}
	fetch := m.opts.FetchRound
	return func() tea.Msg {
		rv, err := fetch(resolved)
		return roundMsg{view: rv, err: err}
	}
}

// apply folds a pushed event into the model and logs what changed.
func (m *Model) apply(ev client.Event) {
	if ev.Round != nil {
		m.logResolution(*ev.Round)
		return
	}
	if ev.View == nil {
		m.lobby = ev.Lobby
		return
	}
	prev := m.view
	v := *ev.View
	m.view = &v

	switch {
	case prev == nil:
		m.addLine(HeaderStyle.Render("Watching game " + v.GameID))
	case prev.Status == game.StatusNotStarted && v.Status == game.StatusRunning:
		m.addLine(SuccessStyle.Render("Game started"))
	case len(v.Players) > len(prev.Players):
		for _, p := range v.Players[len(prev.Players):] {
			m.addLine(fmt.Sprintf("%s joined", p.Nickname))
		}
	}

	start := 0
	if prev != nil && prev.RoundNumber == v.RoundNumber {
		start = len(prev.History)
	}
	if prev == nil || prev.RoundNumber != v.RoundNumber {
		if v.Status == game.StatusRunning {
			m.addLine(HeaderStyle.Render(fmt.Sprintf("Round %d", v.RoundNumber)))
		}
	}
	for _, a := range v.History[min(start, len(v.History)):] {
		m.addLine(fmt.Sprintf("%s: %s", a.Player, ClaimStyle.Render(game.ActionName(a.ActionID))))
	}
	if v.Status == game.StatusFinished && (prev == nil || prev.Status != game.StatusFinished) {
		m.addLine(SuccessStyle.Render(fmt.Sprintf("%s wins the game", v.Winner)))
	}
}

func (m *Model) logResolution(v game.View) {
	r := v.Resolution
	if r == nil {
		return
	}
	verdict := "does not exist"
	if r.SetExists {
		verdict = "exists"
	}
	m.addLine(fmt.Sprintf("Round %d: %s checked %s's %s, which %s",
		v.RoundNumber, r.Checker, r.Claim.Player, ClaimStyle.Render(game.ActionName(r.Claim.ActionID)), verdict))
	for _, h := range v.Hands {
		m.addLine(fmt.Sprintf("  %s: %s", h.Nickname, renderCards(h.Cards)))
	}
	if r.Eliminated {
		m.addLine(ErrorStyle.Render(r.Loser + " is eliminated"))
	} else {
		m.addLine(r.Loser + " takes another card")
	}
}

func (m *Model) addLine(line string) {
	m.lines = append(m.lines, line)
	m.logViewport.SetContent(strings.Join(m.lines, "\n"))
	m.logViewport.GotoBottom()
}

// Lines returns the log as rendered so far.
func (m *Model) Lines() []string {
	return append([]string(nil), m.lines...)
}

// ParseAction reads an action id, "check", or an action's name in any case,
// such as "pair of kings" or "Pair of Ks".
func ParseAction(text string) (int, error) {
	if id, err := strconv.Atoi(text); err == nil {
		if _, err := game.Describe(id); err != nil {
			return 0, err
		}
		return id, nil
	}
	want := normaliseClaim(text)
	for _, a := range game.Catalog() {
		if normaliseClaim(a.String()) == want {
			return a.ID, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", text)
}

var valueWords = map[string]string{
	"nines": "9s", "tens": "10s", "jacks": "js", "queens": "qs", "kings": "ks", "aces": "as",
	"nine": "9", "ten": "10", "jack": "j", "queen": "q", "king": "k", "ace": "a",
}

func normaliseClaim(s string) string {
	s = strings.NewReplacer("(", " ", ")", " ", ",", " ").Replace(strings.ToLower(s))
	words := strings.Fields(s)
	for i, w := range words {
		if r, ok := valueWords[w]; ok {
			words[i] = r
		}
	}
	return strings.Join(words, " ")
}
