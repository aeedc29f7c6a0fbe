package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/gomoku-arena/internal/apperror"
	"github.com/rocketscienceinc/gomoku-arena/internal/entity"
)

var ErrRunnerClosed = errors.New("match runner is shut down")

const archiveTimeout = 5 * time.Second

type MatchStatus string

const (
	StatusIdle     MatchStatus = "idle"
	StatusRunning  MatchStatus = "running"
	StatusFinished MatchStatus = "finished"
)

type moveRequester interface {
	RequestMove(ctx context.Context, bot entity.BotInfo, snapshot entity.Snapshot, timeout time.Duration) (entity.Move, error)
}

type botRegistry interface {
	BothBound() bool
	Binding(player entity.Mark) (entity.BotBinding, bool)
	Bindings() map[entity.Mark]entity.BotBinding
	RecordSuccess(player entity.Mark, info entity.BotInfo)
	RecordFailure(player entity.Mark, info entity.BotInfo, reason apperror.FailureReason)
}

type fallbackPicker interface {
	Pick(cells []entity.Position) (entity.Position, error)
}

type matchArchive interface {
	SaveMatch(ctx context.Context, record *entity.MatchRecord) error
}

// SnapshotListener receives the state after every applied move and after a reset.
// Publish is called with the runner lock held and must not block or call back into the runner.
type SnapshotListener interface {
	Publish(snapshot entity.Snapshot)
}

type RunnerConfig struct {
	BoardSize   int
	MoveTimeout time.Duration
	TurnDelay   time.Duration
}

// RunnerStatus summarizes the current match.
type RunnerStatus struct {
	Status        MatchStatus    `json:"status"`
	Running       bool           `json:"running"`
	MatchID       string         `json:"matchId"`
	MoveCount     int            `json:"moveCount"`
	FallbackMoves int            `json:"fallbackMoves"`
	CurrentPlayer entity.Mark    `json:"currentPlayer"`
	Winner        entity.Outcome `json:"winner"`
	StartedAt     time.Time      `json:"startedAt"`
	FinishedAt    *time.Time     `json:"finishedAt,omitempty"`
}

// matchRun identifies one started match loop. A loop whose run was halted or replaced
// discards whatever it was doing.
type matchRun struct {
	stop     chan struct{}
	stopOnce sync.Once
}

func newMatchRun() *matchRun {
	return &matchRun{stop: make(chan struct{})}
}

func (that *matchRun) halt() {
	that.stopOnce.Do(func() { close(that.stop) })
}

func (that *matchRun) stopped() bool {
	select {
	case <-that.stop:
		return true
	default:
		return false
	}
}

// MatchRunner owns the live match and drives its turn loop.
type MatchRunner struct {
	logger *slog.Logger
	config RunnerConfig

	gateway  moveRequester
	registry botRegistry
	picker   fallbackPicker
	archive  matchArchive
	listener SnapshotListener

	mu            sync.RWMutex
	state         *entity.MatchState
	status        MatchStatus
	run           *matchRun
	fallbackMoves int
	closed        bool

	baseCtx    context.Context
	baseCancel context.CancelFunc
	loops      sync.WaitGroup
}

// NewMatchRunner builds an idle runner. archive and listener may be nil.
func NewMatchRunner(
	logger *slog.Logger,
	config RunnerConfig,
	gateway moveRequester,
	registry botRegistry,
	picker fallbackPicker,
	archive matchArchive,
	listener SnapshotListener,
) *MatchRunner {
	if config.BoardSize < 1 {
		config.BoardSize = entity.DefaultBoardSize
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())

	return &MatchRunner{
		logger:     logger.With("component", "match_runner"),
		config:     config,
		gateway:    gateway,
		registry:   registry,
		picker:     picker,
		archive:    archive,
		listener:   listener,
		state:      entity.NewMatchState(uuid.NewString(), config.BoardSize),
		status:     StatusIdle,
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
	}
}

// Start begins a fresh match on a new board.
func (that *MatchRunner) Start() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return ErrRunnerClosed
	}

	if that.status == StatusRunning {
		return apperror.ErrMatchInProgress
	}

	if !that.registry.BothBound() {
		return apperror.ErrBotsNotBound
	}

	state := entity.NewMatchState(uuid.NewString(), that.config.BoardSize)
	run := newMatchRun()

	that.state = state
	that.status = StatusRunning
	that.run = run
	that.fallbackMoves = 0

	that.loops.Add(1)
	go that.loop(run, state)

	that.logger.Info("match started", "matchID", state.ID())

	return nil
}

// Stop halts the running loop but keeps the board visible. It does not wait for the loop.
func (that *MatchRunner) Stop() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.haltLocked()
}

// Reset halts any running loop and replaces the match with an empty one.
func (that *MatchRunner) Reset() {
	that.mu.Lock()
	that.haltLocked()
	that.state = entity.NewMatchState(uuid.NewString(), that.config.BoardSize)
	that.fallbackMoves = 0
	snapshot := that.state.Snapshot()
	that.publish(snapshot)
	that.mu.Unlock()

	that.logger.Info("match reset", "matchID", snapshot.MatchID)
}

func (that *MatchRunner) haltLocked() {
	if that.run != nil {
		that.run.halt()
		that.run = nil
	}

	if that.status == StatusRunning {
		that.status = StatusIdle
	}
}

// Shutdown halts the loop, cancels any in-flight agent request and waits for the loop to exit.
func (that *MatchRunner) Shutdown(ctx context.Context) error {
	that.mu.Lock()
	that.closed = true
	that.haltLocked()
	that.mu.Unlock()

	that.baseCancel()

	done := make(chan struct{})
	go func() {
		that.loops.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to stop match loop: %w", ctx.Err())
	}
}

func (that *MatchRunner) Snapshot() entity.Snapshot {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.state.Snapshot()
}

func (that *MatchRunner) Status() RunnerStatus {
	that.mu.RLock()
	defer that.mu.RUnlock()

	snapshot := that.state.Snapshot()

	return RunnerStatus{
		Status:        that.status,
		Running:       that.status == StatusRunning,
		MatchID:       snapshot.MatchID,
		MoveCount:     len(snapshot.MoveHistory),
		FallbackMoves: that.fallbackMoves,
		CurrentPlayer: snapshot.CurrentPlayer,
		Winner:        snapshot.Winner,
		StartedAt:     snapshot.StartedAt,
		FinishedAt:    snapshot.FinishedAt,
	}
}

func (that *MatchRunner) loop(run *matchRun, state *entity.MatchState) {
	defer that.loops.Done()

	log := that.logger.With("method", "loop", "matchID", state.ID())

	for !run.stopped() {
		that.mu.RLock()
		snapshot := state.Snapshot()
		that.mu.RUnlock()

		player := snapshot.CurrentPlayer
		move, fromAgent := that.askAgent(log, run, player, snapshot)

		that.mu.Lock()
		if run.stopped() || that.run != run {
			that.mu.Unlock()
			log.Info("discarding move from a stopped match", "player", player)
			return
		}

		if err := that.applyLocked(log, state, player, move, fromAgent); err != nil {
			that.status = StatusFinished
			that.run = nil
			that.mu.Unlock()
			log.Error("match aborted", "error", err)
			return
		}

		snapshot = state.Snapshot()

		var record *entity.MatchRecord
		if state.IsTerminal() {
			that.status = StatusFinished
			that.run = nil
			record = entity.NewMatchRecord(snapshot, that.playerNames(), that.fallbackMoves)
		}
		that.publish(snapshot)
		that.mu.Unlock()

		if record != nil {
			log.Info("match finished", "winner", record.Winner, "moves", len(record.MoveHistory), "fallbackMoves", record.FallbackMoves)
			that.save(log, record)
			return
		}

		if !that.wait(run) {
			return
		}
	}
}

// askAgent returns the bound agent's move, or false when a fallback move is needed.
// Liveness is only recorded while run is still the current run.
func (that *MatchRunner) askAgent(log *slog.Logger, run *matchRun, player entity.Mark, snapshot entity.Snapshot) (entity.Move, bool) {
	binding, ok := that.registry.Binding(player)
	if !ok {
		log.Warn("no agent bound, using fallback", "player", player)
		return entity.Move{}, false
	}

	move, err := that.gateway.RequestMove(that.baseCtx, binding.Bot, snapshot, that.config.MoveTimeout)

	that.mu.RLock()
	defer that.mu.RUnlock()

	if that.run != run {
		return entity.Move{}, false
	}

	if err != nil {
		reason := apperror.FailureUnreachable

		var failure *apperror.AgentFailure
		if errors.As(err, &failure) {
			reason = failure.Reason
		}

		that.registry.RecordFailure(player, binding.Bot, reason)
		log.Warn("agent failed, using fallback", "player", player, "bot", binding.Bot.DisplayName(), "reason", reason, "error", err)

		return entity.Move{}, false
	}

	that.registry.RecordSuccess(player, binding.Bot)

	return move, true
}

// applyLocked applies the agent's move, or a random legal one when the agent gave none or
// an illegal one. The caller holds the write lock.
func (that *MatchRunner) applyLocked(log *slog.Logger, state *entity.MatchState, player entity.Mark, move entity.Move, fromAgent bool) error {
	if fromAgent {
		err := state.ApplyMove(move.Row, move.Col, player)
		if err == nil {
			log.Debug("move applied", "player", player, "row", move.Row, "col", move.Col)
			return nil
		}

		log.Warn("agent move rejected, using fallback", "player", player, "row", move.Row, "col", move.Col, "error", err)
	}

	cell, err := that.picker.Pick(state.EmptyCells())
	if err != nil {
		return fmt.Errorf("failed to pick fallback move: %w", err)
	}

	if err = state.ApplyMove(cell.Row, cell.Col, player); err != nil {
		return fmt.Errorf("failed to apply fallback move: %w", err)
	}

	that.fallbackMoves++
	log.Debug("fallback move applied", "player", player, "row", cell.Row, "col", cell.Col)

	return nil
}

// wait sleeps for the turn delay and reports whether the run should continue.
func (that *MatchRunner) wait(run *matchRun) bool {
	if that.config.TurnDelay <= 0 {
		return !run.stopped()
	}

	timer := time.NewTimer(that.config.TurnDelay)
	defer timer.Stop()

	select {
	case <-run.stop:
		return false
	case <-that.baseCtx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (that *MatchRunner) playerNames() map[entity.Mark]string {
	names := make(map[entity.Mark]string, len(entity.Players))
	for player, binding := range that.registry.Bindings() {
		names[player] = binding.Bot.DisplayName()
	}
	return names
}

// publish runs under the runner lock so a stale loop can never publish after a reset.
func (that *MatchRunner) publish(snapshot entity.Snapshot) {
	if that.listener != nil {
		that.listener.Publish(snapshot)
	}
}

func (that *MatchRunner) save(log *slog.Logger, record *entity.MatchRecord) {
	if that.archive == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	if err := that.archive.SaveMatch(ctx, record); err != nil {
		log.Error("failed to archive match", "error", err)
	}
}
