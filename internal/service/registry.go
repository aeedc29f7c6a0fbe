package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/rocketscienceinc/gomoku-arena/internal/apperror"
	"github.com/rocketscienceinc/gomoku-arena/internal/entity"
)

// BotRegistry maps player slots to agents. It is safe for concurrent use.
type BotRegistry struct {
	mu       sync.RWMutex
	bindings map[entity.Mark]entity.BotBinding
	now      func() time.Time
}

func NewBotRegistry() *BotRegistry {
	return &BotRegistry{
		bindings: make(map[entity.Mark]entity.BotBinding, len(entity.Players)),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Bind attaches an agent to a slot, replacing any previous binding and its liveness history.
func (that *BotRegistry) Bind(player entity.Mark, info entity.BotInfo) error {
	if !player.IsPlayer() {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidPlayer, player)
	}

	if err := info.Validate(); err != nil {
		return fmt.Errorf("failed to bind player %s: %w", player, err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	that.bindings[player] = entity.BotBinding{
		Player:       player,
		Bot:          info,
		RegisteredAt: that.now(),
	}

	return nil
}

func (that *BotRegistry) Unbind(player entity.Mark) error {
	if !player.IsPlayer() {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidPlayer, player)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.bindings, player)

	return nil
}

func (that *BotRegistry) BothBound() bool {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, player := range entity.Players {
		if _, ok := that.bindings[player]; !ok {
			return false
		}
	}

	return true
}

// Binding returns a copy of the slot's binding.
func (that *BotRegistry) Binding(player entity.Mark) (entity.BotBinding, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	binding, ok := that.bindings[player]
	return copyBinding(binding), ok
}

// Bindings returns a copy of every bound slot.
func (that *BotRegistry) Bindings() map[entity.Mark]entity.BotBinding {
	that.mu.RLock()
	defer that.mu.RUnlock()

	bindings := make(map[entity.Mark]entity.BotBinding, len(that.bindings))
	for player, binding := range that.bindings {
		bindings[player] = copyBinding(binding)
	}

	return bindings
}

// RecordSuccess marks the slot's agent as seen. It is a no-op if the agent was rebound to
// another address in the meantime.
func (that *BotRegistry) RecordSuccess(player entity.Mark, info entity.BotInfo) {
	that.mu.Lock()
	defer that.mu.Unlock()

	binding, ok := that.bindings[player]
	if !ok || binding.Bot != info {
		return
	}

	now := that.now()
	binding.LastSeenAt = &now
	binding.ConsecutiveFailures = 0
	binding.LastFailure = ""
	that.bindings[player] = binding
}

func (that *BotRegistry) RecordFailure(player entity.Mark, info entity.BotInfo, reason apperror.FailureReason) {
	that.mu.Lock()
	defer that.mu.Unlock()

	binding, ok := that.bindings[player]
	if !ok || binding.Bot != info {
		return
	}

	binding.ConsecutiveFailures++
	binding.LastFailure = reason
	that.bindings[player] = binding
}

func copyBinding(binding entity.BotBinding) entity.BotBinding {
	if binding.LastSeenAt != nil {
		lastSeenAt := *binding.LastSeenAt
		binding.LastSeenAt = &lastSeenAt
	}
	return binding
}
