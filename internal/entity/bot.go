package entity

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/rocketscienceinc/gomoku-arena/internal/apperror"
)

const maxPort = 65535

// BotInfo is how an agent is reached.
type BotInfo struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	Name string `json:"name"`
}

func (that BotInfo) Validate() error {
	if that.Host == "" {
		return fmt.Errorf("%w: host is required", apperror.ErrInvalidBotInfo)
	}

	if that.Port < 1 || that.Port > maxPort {
		return fmt.Errorf("%w: port %d is out of range", apperror.ErrInvalidBotInfo, that.Port)
	}

	return nil
}

// Address returns host:port.
func (that BotInfo) Address() string {
	return net.JoinHostPort(that.Host, strconv.Itoa(that.Port))
}

// DisplayName falls back to the address for unnamed agents.
func (that BotInfo) DisplayName() string {
	if that.Name != "" {
		return that.Name
	}
	return that.Address()
}

// BotBinding is a player slot bound to an agent, with liveness metadata.
type BotBinding struct {
	Player              Mark                   `json:"player"`
	Bot                 BotInfo                `json:"bot_info"`
	RegisteredAt        time.Time              `json:"registeredAt"`
	LastSeenAt          *time.Time             `json:"lastSeenAt,omitempty"`
	ConsecutiveFailures int                    `json:"consecutiveFailures"`
	LastFailure         apperror.FailureReason `json:"lastFailure,omitempty"`
}
