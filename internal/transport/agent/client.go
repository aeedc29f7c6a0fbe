package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/rocketscienceinc/gomoku-arena/internal/apperror"
	"github.com/rocketscienceinc/gomoku-arena/internal/entity"
)

const (
	DefaultTimeout = 10 * time.Second

	movePath        = "/get_move"
	maxResponseSize = 64 << 10
)

// moveResponse is what an agent answers: {"row": int, "col": int}.
type moveResponse struct {
	Row int `mapstructure:"row"`
	Col int `mapstructure:"col"`
}

// Client asks remote agents for moves over HTTP.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
}

func NewClient(logger *slog.Logger, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		logger:     logger.With("component", "agent_client"),
		httpClient: httpClient,
	}
}

// RequestMove posts the snapshot to the agent and returns its move for the snapshot's current
// player. Any error is an *apperror.AgentFailure.
func (that *Client) RequestMove(ctx context.Context, bot entity.BotInfo, snapshot entity.Snapshot, timeout time.Duration) (entity.Move, error) {
	log := that.logger.With("method", "RequestMove", "bot", bot.DisplayName(), "player", snapshot.CurrentPlayer)

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(snapshot)
	if err != nil {
		return entity.Move{}, apperror.NewAgentFailure(apperror.FailureBadResponse, fmt.Errorf("failed to encode state: %w", err))
	}

	url := "http://" + bot.Address() + movePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return entity.Move{}, apperror.NewAgentFailure(apperror.FailureUnreachable, fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := that.httpClient.Do(req)
	if err != nil {
		return entity.Move{}, transportFailure(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return entity.Move{}, apperror.NewAgentFailure(apperror.FailureBadResponse, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return entity.Move{}, transportFailure(err)
	}

	position, err := decodeMove(payload)
	if err != nil {
		return entity.Move{}, apperror.NewAgentFailure(apperror.FailureBadResponse, err)
	}

	log.Debug("agent answered", "row", position.Row, "col", position.Col, "elapsed", time.Since(started))

	return entity.Move{Row: position.Row, Col: position.Col, Player: snapshot.CurrentPlayer}, nil
}

func transportFailure(err error) *apperror.AgentFailure {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperror.NewAgentFailure(apperror.FailureTimeout, err)
	}

	return apperror.NewAgentFailure(apperror.FailureUnreachable, err)
}

// decodeMove requires both keys and integral values.
func decodeMove(payload []byte) (entity.Position, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()

	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return entity.Position{}, fmt.Errorf("malformed response body: %w", err)
	}

	for _, key := range []string{"row", "col"} {
		if raw[key] == nil {
			return entity.Position{}, fmt.Errorf("invalid move payload: %q is missing", key)
		}
	}

	var move moveResponse
	var metadata mapstructure.Metadata

	moveDecoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: jsonNumberToInt,
		Metadata:   &metadata,
		Result:     &move,
	})
	if err != nil {
		return entity.Position{}, fmt.Errorf("failed to build decoder: %w", err)
	}

	if err = moveDecoder.Decode(raw); err != nil {
		return entity.Position{}, fmt.Errorf("invalid move payload: %w", err)
	}

	if len(metadata.Unset) > 0 {
		return entity.Position{}, fmt.Errorf("invalid move payload: missing %v", metadata.Unset)
	}

	return entity.Position{Row: move.Row, Col: move.Col}, nil
}

func jsonNumberToInt(_, to reflect.Type, data any) (any, error) {
	number, ok := data.(json.Number)
	if !ok || to.Kind() != reflect.Int {
		return data, nil
	}

	if value, err := number.Int64(); err == nil {
		return int(value), nil
	}

	// 7.0 is accepted, 7.5 is not.
	value, err := number.Float64()
	if err != nil || value != math.Trunc(value) || math.Abs(value) > math.MaxInt32 {
		return nil, fmt.Errorf("%s is not an integer", number)
	}

	return int(value), nil
}
