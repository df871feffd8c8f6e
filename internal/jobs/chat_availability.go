package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	cache "encore/internal/cache/iface"
	"encore/internal/logger"
)

const (
	// ChatAvailabilityID is the registry id of the chat availability job
	ChatAvailabilityID = "chat-availability"

	ChatSettingsKey     = "chat:settings"
	ChatAvailabilityKey = "chat:availability"

	ChatOnline  = "online"
	ChatOffline = "offline"
)

// ChatSettings are the support chat working hours, maintained by the chat subsystem
type ChatSettings struct {
	// Days are weekdays the chat is staffed, 0 = Sunday
	Days  []time.Weekday `json:"days"`
	Open  string         `json:"open"`
	Close string         `json:"close"`
}

func (s ChatSettings) window() (time.Duration, time.Duration, error) {
	open, err := clockOffset(s.Open)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid open time: %w", err)
	}
	closeAt, err := clockOffset(s.Close)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid close time: %w", err)
	}
	if closeAt <= open {
		return 0, 0, fmt.Errorf("close %s must be after open %s", s.Close, s.Open)
	}
	return open, closeAt, nil
}

// Available reports whether t falls within working hours
func (s ChatSettings) Available(t time.Time) (bool, error) {
	open, closeAt, err := s.window()
	if err != nil {
		return false, err
	}

	staffed := false
	for _, d := range s.Days {
		if d == t.Weekday() {
			staffed = true
			break
		}
	}
	if !staffed {
		return false, nil
	}

	sinceMidnight := time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
	return sinceMidnight >= open && sinceMidnight < closeAt, nil
}

// clockOffset parses "HH:MM" into an offset from midnight
func clockOffset(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// ChatAvailability publishes whether the support chat is currently staffed
type ChatAvailability struct {
	cache    cache.Cache
	location *time.Location
	now      func() time.Time
	logger   logger.Logger
}

// NewChatAvailability creates the chat availability task evaluating hours in location
func NewChatAvailability(c cache.Cache, location *time.Location, log logger.Logger) *ChatAvailability {
	if location == nil {
		location = time.UTC
	}
	return &ChatAvailability{
		cache:    c,
		location: location,
		now:      time.Now,
		logger:   log.With(logger.String("job", ChatAvailabilityID)),
	}
}

func (j *ChatAvailability) ID() string { return ChatAvailabilityID }

func (j *ChatAvailability) Run(ctx context.Context) error {
	status := ChatOffline

	raw, err := j.cache.Get(ctx, ChatSettingsKey)
	switch {
	case errors.Is(err, cache.ErrCacheMiss):
		j.logger.Warn("chat settings not configured, marking chat offline")
	case err != nil:
		return fmt.Errorf("failed to read chat settings: %w", err)
	default:
		var settings ChatSettings
		if err := json.Unmarshal([]byte(raw), &settings); err != nil {
			return fmt.Errorf("failed to decode chat settings: %w", err)
		}
		online, err := settings.Available(j.now().In(j.location))
		if err != nil {
			return fmt.Errorf("invalid chat settings: %w", err)
		}
		if online {
			status = ChatOnline
		}
	}

	if err := j.cache.Set(ctx, ChatAvailabilityKey, status, 0); err != nil {
		return fmt.Errorf("failed to write chat availability: %w", err)
	}

	j.logger.Debug("chat availability updated",
		logger.String("status", status),
	)
	return nil
}
