// AngelaMos | 2026
// mode.go

package automation

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ksdeva/predictor-admin/internal/core"
)

// Mode decides whether evaluation runs deletions or only reports and
// warns.
type Mode string

const (
	ModeManual    Mode = "manual"
	ModeAutomated Mode = "automated"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeManual, ModeAutomated:
		return Mode(s), nil
	default:
		return "", core.ValidationError(
			fmt.Sprintf("unknown automation mode %q", s),
		)
	}
}

const modeKey = "automation:mode"

// ModeStore keeps the automation mode in Redis so every instance and
// the scheduler agree on it. Writes are last-write-wins.
type ModeStore interface {
	Get(ctx context.Context) (Mode, error)
	Set(ctx context.Context, mode Mode) error
}

type redisModeStore struct {
	client *redis.Client
}

func NewModeStore(client *redis.Client) ModeStore {
	return &redisModeStore{client: client}
}

// Get returns the stored mode, defaulting to manual when the key has
// never been written.
func (s *redisModeStore) Get(ctx context.Context) (Mode, error) {
	val, err := s.client.Get(ctx, modeKey).Result()
	if errors.Is(err, redis.Nil) {
		return ModeManual, nil
	}
	if err != nil {
		return "", fmt.Errorf("get automation mode: %w", err)
	}

	mode, parseErr := ParseMode(val)
	if parseErr != nil {
		// Corrupt value: fail safe, never delete on bad state.
		return ModeManual, nil
	}

	return mode, nil
}

func (s *redisModeStore) Set(ctx context.Context, mode Mode) error {
	if err := s.client.Set(ctx, modeKey, string(mode), 0).Err(); err != nil {
		return fmt.Errorf("set automation mode: %w", err)
	}
	return nil
}
