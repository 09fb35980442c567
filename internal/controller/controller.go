package controller

import (
	"context"
	"errors"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/loog-project/rulist/internal/source"
	"github.com/loog-project/rulist/internal/store"
	"github.com/loog-project/rulist/internal/user"
)

const (
	DefaultPageSize      = 10
	DefaultFeedbackDelay = 2 * time.Second

	// recordTimeout bounds a single history write.
	recordTimeout = 5 * time.Second
)

// Op identifies the operation that issued a fetch.
type Op uint8

const (
	OpLoadInitial Op = iota
	OpRefresh
	OpAddOne
)

func (o Op) String() string {
	switch o {
	case OpLoadInitial:
		return "load"
	case OpRefresh:
		return "refresh"
	case OpAddOne:
		return "add"
	default:
		return "unknown"
	}
}

// State is a snapshot of the list state as seen by the view.
type State struct {
	Users           []user.Record
	Refreshing      bool
	FeedbackVisible bool

	// LastSettled is the time the list was last replaced by a fetch, zero before that.
	LastSettled time.Time
	// LastError is the most recent absorbed fetch error, cleared by the next successful fetch.
	LastError error
}

type Options struct {
	PageSize int

	// Feedback enables the transient banner shown on refresh.
	Feedback      bool
	FeedbackDelay time.Duration

	// History receives every settled fetch. nil disables recording.
	History store.HistoryStore

	Logger zerolog.Logger
}

func WithPageSize(n int) func(*Options) {
	return func(o *Options) { o.PageSize = n }
}

// WithFeedback toggles the refresh banner and sets how long it stays after settlement.
func WithFeedback(enabled bool, delay time.Duration) func(*Options) {
	return func(o *Options) {
		o.Feedback = enabled
		o.FeedbackDelay = delay
	}
}

func WithHistory(h store.HistoryStore) func(*Options) {
	return func(o *Options) { o.History = h }
}

func WithLogger(l zerolog.Logger) func(*Options) {
	return func(o *Options) { o.Logger = l }
}

// Controller owns the user list and mediates between the source and the view.
//
// It is not safe for concurrent use: every method must be called from the
// bubbletea event loop. Fetches run inside tea.Cmds and report back through
// messages that have to be passed to Update.
type Controller struct {
	ctx    context.Context
	cancel context.CancelFunc

	source  source.Source
	options Options
	log     zerolog.Logger

	state State

	loadIssued bool
	// refreshGen identifies the latest refresh; stale banner timers compare against it.
	refreshGen uint64
	closed     bool
}

func New(parent context.Context, src source.Source, opts ...func(*Options)) *Controller {
	options := Options{
		PageSize:      DefaultPageSize,
		Feedback:      true,
		FeedbackDelay: DefaultFeedbackDelay,
		Logger:        zerolog.Nop(),
	}
	for _, fn := range opts {
		fn(&options)
	}
	if options.PageSize < 1 {
		options.PageSize = DefaultPageSize
	}
	if options.FeedbackDelay < 0 {
		options.FeedbackDelay = DefaultFeedbackDelay
	}

	ctx, cancel := context.WithCancel(parent)
	return &Controller{
		ctx:     ctx,
		cancel:  cancel,
		source:  src,
		options: options,
		log:     options.Logger,
		state:   State{Users: []user.Record{}},
	}
}

// State returns a copy of the current list state.
func (c *Controller) State() State {
	s := c.state
	s.Users = slices.Clone(c.state.Users)
	return s
}

func (c *Controller) PageSize() int {
	return c.options.PageSize
}

// LoadInitial fetches the first page. Only the first call issues a fetch.
func (c *Controller) LoadInitial() tea.Cmd {
	if c.closed || c.loadIssued {
		return nil
	}
	c.loadIssued = true
	c.log.Debug().Int("page-size", c.options.PageSize).Msg("Loading initial users")
	return c.fetchMany(OpLoadInitial, 0)
}

// Refresh replaces the list with a fresh page. Calls while a refresh is
// in flight are ignored.
func (c *Controller) Refresh() tea.Cmd {
	if c.closed {
		return nil
	}
	if c.state.Refreshing {
		c.log.Debug().Uint64("generation", c.refreshGen).Msg("Refresh already in flight, ignoring")
		return nil
	}
	c.refreshGen++
	c.state.Refreshing = true
	if c.options.Feedback {
		c.state.FeedbackVisible = true
	}
	c.log.Debug().Uint64("generation", c.refreshGen).Msg("Refreshing users")
	return c.fetchMany(OpRefresh, c.refreshGen)
}

// AddOne fetches a single user and puts it on top of the list.
func (c *Controller) AddOne() tea.Cmd {
	if c.closed {
		return nil
	}
	src, ctx := c.source, c.ctx
	return func() tea.Msg {
		r, err := src.FetchOne(ctx)
		return oneFetchedMsg{record: r, err: err, at: time.Now()}
	}
}

// Close tears the controller down. In-flight fetches are cancelled and their
// completions are dropped.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
}

// Update applies controller messages. It reports whether msg belonged to the
// controller and returns follow-up commands.
func (c *Controller) Update(msg tea.Msg) (bool, tea.Cmd) {
	switch m := msg.(type) {
	case manyFetchedMsg:
		return true, c.settleMany(m)
	case oneFetchedMsg:
		return true, c.settleOne(m)
	case feedbackExpiredMsg:
		if !c.closed && m.generation == c.refreshGen {
			c.state.FeedbackVisible = false
		}
		return true, nil
	case recordedMsg:
		if m.err != nil && !c.closed {
			c.log.Warn().Err(m.err).Str("op", m.op.String()).Msg("Cannot record fetch history")
		}
		return true, nil
	}
	return false, nil
}

func (c *Controller) fetchMany(op Op, generation uint64) tea.Cmd {
	src, ctx, n := c.source, c.ctx, c.options.PageSize
	return func() tea.Msg {
		records, err := src.FetchMany(ctx, n)
		return manyFetchedMsg{
			op:         op,
			generation: generation,
			records:    records,
			err:        err,
			at:         time.Now(),
		}
	}
}

func (c *Controller) settleMany(m manyFetchedMsg) tea.Cmd {
	if c.closed {
		return nil
	}
	l := c.log.With().Str("op", m.op.String()).Logger()

	if m.op == OpRefresh && m.generation == c.refreshGen {
		c.state.Refreshing = false
	}

	if m.err != nil {
		c.state.LastError = m.err
		l.Error().Err(m.err).Str("kind", errorKind(m.err)).Msg("Cannot fetch users")
	} else {
		c.state.Users = uniqueByID(m.records, l)
		c.state.LastSettled = m.at
		c.state.LastError = nil
		l.Info().Int("count", len(c.state.Users)).Msg("Users loaded")
	}

	cmds := []tea.Cmd{c.record(m.op, m.at, c.options.PageSize, m.records, m.err)}
	if m.op == OpRefresh && c.options.Feedback {
		// the banner stays for the full delay after settlement, even on failure
		generation := m.generation
		cmds = append(cmds, tea.Tick(c.options.FeedbackDelay, func(time.Time) tea.Msg {
			return feedbackExpiredMsg{generation: generation}
		}))
	}
	return tea.Batch(cmds...)
}

func (c *Controller) settleOne(m oneFetchedMsg) tea.Cmd {
	if c.closed {
		return nil
	}
	l := c.log.With().Str("op", OpAddOne.String()).Logger()

	if m.err != nil {
		c.state.LastError = m.err
		l.Error().Err(m.err).Str("kind", errorKind(m.err)).Msg("Cannot fetch user")
		return c.record(OpAddOne, m.at, 0, nil, m.err)
	}

	c.state.LastError = nil
	if slices.ContainsFunc(c.state.Users, func(r user.Record) bool { return r.ID == m.record.ID }) {
		l.Warn().Str("id", m.record.ID.String()).Msg("User is already listed, dropping duplicate")
	} else {
		users := make([]user.Record, 0, len(c.state.Users)+1)
		users = append(users, m.record)
		c.state.Users = append(users, c.state.Users...)
		l.Info().Str("id", m.record.ID.String()).Msg("User added")
	}
	return c.record(OpAddOne, m.at, 0, []user.Record{m.record}, nil)
}

// record returns a command persisting the fetch outcome, or nil without history.
func (c *Controller) record(op Op, at time.Time, requested int, records []user.Record, err error) tea.Cmd {
	history := c.options.History
	if history == nil {
		return nil
	}
	batch := &store.Batch{
		Op:        op.String(),
		Time:      at,
		Requested: requested,
	}
	if err != nil {
		batch.Error = err.Error()
	} else {
		batch.Users = slices.Clone(records)
	}
	parent := c.ctx
	return func() tea.Msg {
		// detached from cancellation so the last fetches still land on shutdown
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), recordTimeout)
		defer cancel()
		return recordedMsg{op: op, err: history.Append(ctx, batch)}
	}
}

// uniqueByID drops repeated ids within one batch, first occurrence wins.
func uniqueByID(records []user.Record, l zerolog.Logger) []user.Record {
	seen := make(map[user.ID]struct{}, len(records))
	out := make([]user.Record, 0, len(records))
	for _, r := range records {
		if _, dup := seen[r.ID]; dup {
			l.Warn().Str("id", r.ID.String()).Msg("Duplicate id in batch, dropping")
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

func errorKind(err error) string {
	var netErr *source.NetworkError
	if errors.As(err, &netErr) {
		return netErr.Kind.String()
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "unknown"
}
