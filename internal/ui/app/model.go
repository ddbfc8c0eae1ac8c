// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app implements the cordial terminal client as a bubbletea program.
package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/disgoorg/snowflake/v2"
	"github.com/muesli/termenv"

	"github.com/jeranaias/cordial-tui/internal/color"
	"github.com/jeranaias/cordial-tui/internal/config"
	"github.com/jeranaias/cordial-tui/internal/fetch"
	"github.com/jeranaias/cordial-tui/internal/metrics"
	"github.com/jeranaias/cordial-tui/internal/model"
	"github.com/jeranaias/cordial-tui/internal/render"
	"github.com/jeranaias/cordial-tui/internal/session"
	"github.com/jeranaias/cordial-tui/internal/state"
	"github.com/jeranaias/cordial-tui/internal/storage"
	"github.com/jeranaias/cordial-tui/internal/ui/styles"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// gutterWidth is the selection marker column at the left edge of the
	// transcript viewport.
	gutterWidth = 2

	// minTranscriptWidth keeps the renderer usable on narrow terminals.
	minTranscriptWidth = 20

	// noteLifetime is how long a transient status note stays visible.
	noteLifetime = 3 * time.Second
)

// focusArea identifies which pane receives navigation keys.
type focusArea int

const (
	focusSidebar focusArea = iota
	focusTranscript
	focusSearch
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Deps wires the program to the rest of the client. Config, Coord, Colors,
// State, and Sessions are required. Cache and Tracker are optional; without
// them favorites, read marks, and the counters segment degrade gracefully.
type Deps struct {
	Config   *config.Config
	Coord    *fetch.Coordinator
	Colors   *color.Resolver
	State    *state.Store
	Cache    *storage.Store
	Tracker  *metrics.Tracker
	Sessions *session.Manager
	Logger   *slog.Logger

	// Offline forbids network use: every load reads the persistent cache.
	Offline bool

	// Plain strips all styling from the output.
	Plain bool
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the complete program state. Update methods use a value receiver
// in the bubbletea convention; long-lived collaborators are pointers so the
// copies stay cheap and share state.
type Model struct {
	// Wiring
	ctx      context.Context
	cfg      *config.Config
	coord    *fetch.Coordinator
	resolver *color.Resolver
	state    *state.Store
	cache    *storage.Store
	tracker  *metrics.Tracker
	sessions *session.Manager
	logger   *slog.Logger
	offline  bool
	plain    bool

	// Rendering
	theme    *styles.Theme
	renderer *render.Transcript
	keys     KeyMap

	// Layout
	width  int
	height int

	// Panes
	sidebar  sidebarModel
	viewport viewport.Model
	spin     spinner.Model
	focus    focusArea

	// Transcript state. msgs is the current page run in API order, newest
	// first; lines is its rendered form, oldest first.
	msgs         []model.Message
	colors       map[snowflake.ID]model.Color
	lines        []render.Line
	cursor       int
	channel      model.Channel
	guild        model.Guild
	loaded       bool
	cached       bool
	loading      bool
	loadingOlder bool

	// Unread bookkeeping, keyed by channel.
	readStates map[snowflake.ID]snowflake.ID
	favorites  map[snowflake.ID]bool

	// Search
	searchInput textinput.Model
	query       string
	matches     []int
	matchIdx    int

	// Status
	note    string
	noteSeq int
	errNote string

	// Overlays
	showHelp   bool
	helpView   string
	expand     *model.Message
	expandView string
}

// New builds the program model. ctx bounds every load the program starts;
// cancel it to stop in-flight work on shutdown.
func New(ctx context.Context, deps Deps) Model {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Plain {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	theme := styles.NewTheme(cfg.UI.Theme)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	input := textinput.New()
	input.Prompt = "/"
	input.Placeholder = "search"
	input.CharLimit = 128

	m := Model{
		ctx:      ctx,
		cfg:      cfg,
		coord:    deps.Coord,
		resolver: deps.Colors,
		state:    deps.State,
		cache:    deps.Cache,
		tracker:  deps.Tracker,
		sessions: deps.Sessions,
		logger:   logger.With("component", "ui"),
		offline:  deps.Offline,
		plain:    deps.Plain,

		theme:       theme,
		keys:        newKeyMap(cfg.Keys),
		sidebar:     newSidebar(),
		viewport:    viewport.New(0, 0),
		spin:        sp,
		searchInput: input,
		cursor:      -1,
		readStates:  map[snowflake.ID]snowflake.ID{},
		favorites:   map[snowflake.ID]bool{},
	}

	m.renderer = render.NewTranscript(m.renderOptions())
	m.warmStart()
	return m
}

// warmStart primes the in-memory store and sidebar from the persistent
// cache so the first frame shows the last known lists instead of a blank
// screen. Network refresh follows in Init.
func (m *Model) warmStart() {
	if m.cache == nil {
		return
	}

	ctx, cancel := context.WithTimeout(m.ctx, 2*time.Second)
	defer cancel()

	if guilds, err := m.cache.Guilds(ctx); err == nil {
		m.state.PutGuilds(guilds)
	}
	if dms, err := m.cache.DMChannels(ctx); err == nil {
		m.state.PutChannels(dms)
	}
	if favs, err := m.cache.Favorites(ctx); err == nil {
		m.favorites = favs
		for id := range favs {
			if ch, err := m.cache.Channel(ctx, id); err == nil {
				m.state.PutChannel(ch)
			}
		}
	}
	if reads, err := m.cache.ReadStates(ctx); err == nil {
		m.readStates = reads
	}
	m.rebuildSidebar()
}

// Init starts the spinner clock and the first sidebar load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadSidebar(), m.spin.Tick)
}

// NewProgram wraps the model in a bubbletea program configured for the
// attached terminal: alternate screen, and cell-motion mouse tracking when
// the config allows it. Callers hand the returned program to a config
// watcher for live reloads before running it.
func NewProgram(ctx context.Context, deps Deps) *tea.Program {
	m := New(ctx, deps)
	opts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	}
	if m.cfg.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(m, opts...)
}

// =============================================================================
// LAYOUT
// =============================================================================

// handleResize recomputes pane geometry and re-renders the transcript at
// the new width.
func (m *Model) handleResize(width, height int) {
	m.width = width
	m.height = height
	m.resizePanes()

	m.renderer = render.NewTranscript(m.renderOptions())
	m.rerender()
	if m.showHelp {
		m.helpView = m.renderHelpMarkdown()
	}
	if m.expand != nil {
		m.expandView = m.renderExpandMarkdown(*m.expand)
	}
}

// resizePanes recomputes geometry without touching the renderer, for
// changes that only move pane boundaries vertically (search bar, status
// bar visibility).
func (m *Model) resizePanes() {
	if m.width == 0 {
		return
	}

	m.sidebar.width = m.cfg.UI.SidebarWidth
	m.sidebar.height = m.height - m.statusBarHeight()
	m.sidebar.scrollToCursor()

	vpWidth := m.width - m.sidebarPaneWidth()
	if vpWidth < minTranscriptWidth {
		vpWidth = minTranscriptWidth
	}
	vpHeight := m.height - m.statusBarHeight() - m.titleHeight() - m.searchBarHeight()
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight
	if w := vpWidth - 8; w >= 10 {
		m.searchInput.Width = w
	} else {
		m.searchInput.Width = 10
	}
}

// sidebarPaneWidth is the columns the sidebar occupies including its
// border, zero when hidden.
func (m Model) sidebarPaneWidth() int {
	if m.sidebar.hidden {
		return 0
	}
	return m.sidebar.width + 1
}

func (m Model) statusBarHeight() int {
	if m.cfg.UI.ShowStatusBar {
		return 1
	}
	return 0
}

// titleHeight covers the channel header and its bottom border.
func (m Model) titleHeight() int {
	return 2
}

func (m Model) searchBarHeight() int {
	if m.focus == focusSearch || m.query != "" {
		return 1
	}
	return 0
}

// transcriptWidth is the column budget handed to the renderer; the gutter
// column is carved out of the viewport width first.
func (m Model) transcriptWidth() int {
	w := m.viewport.Width - gutterWidth
	if w < minTranscriptWidth {
		w = minTranscriptWidth
	}
	return w
}

// renderOptions maps the active config onto the transcript renderer.
func (m Model) renderOptions() render.Options {
	profile := termenv.TrueColor
	if m.theme != nil {
		profile = m.theme.ColorProfile
	}
	return render.Options{
		Width:           m.transcriptWidth(),
		TimeLayout:      m.cfg.Timestamps.Layout(),
		Location:        m.cfg.Location(),
		NoTimestamps:    !m.cfg.Timestamps.Enabled,
		Markdown:        m.cfg.Markdown,
		ShowAttachments: m.cfg.ShowAttachmentLinks,
		Plain:           m.plain,
		Profile:         profile,
	}
}
