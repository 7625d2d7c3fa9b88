// Package commands implements the grass-log CLI commands.
package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/grass-node/grass-go/pkg/log"
)

// FilterOptions holds the filter flags shared by all commands.
type FilterOptions struct {
	ConnID    string
	DeviceID  string
	Action    string
	Direction string
	Category  string
	TimeStart string
	TimeEnd   string
}

// BuildFilter converts flag values into a log.Filter.
func BuildFilter(opts FilterOptions) (log.Filter, error) {
	filter := log.Filter{
		ConnectionID: opts.ConnID,
		DeviceID:     opts.DeviceID,
		Action:       opts.Action,
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}
	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	if opts.Direction != "" {
		d, ok := log.ParseDirection(strings.ToUpper(opts.Direction))
		if !ok {
			return log.Filter{}, fmt.Errorf("invalid direction: %s (must be in or out)", opts.Direction)
		}
		filter.Direction = &d
	}
	if opts.Category != "" {
		c, ok := log.ParseCategory(strings.ToUpper(opts.Category))
		if !ok {
			return log.Filter{}, fmt.Errorf("invalid category: %s (must be message, state, or error)", opts.Category)
		}
		filter.Category = &c
	}
	return filter, nil
}

// RunFilter copies the events of path matching opts into output.
// It returns the number of events written.
func RunFilter(path, output string, opts FilterOptions) (int, error) {
	filter, err := BuildFilter(opts)
	if err != nil {
		return 0, err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLoggerWithAgent(output, "grass-log")
	if err != nil {
		return 0, fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	err = forEach(reader, func(event log.Event) error {
		logger.Log(event)
		count++
		return nil
	})
	return count, err
}

// forEach calls fn for every remaining event of reader.
func forEach(reader *log.Reader, fn func(log.Event) error) error {
	for event, err := range reader.Events() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := fn(event); err != nil {
			return err
		}
	}
	return nil
}
