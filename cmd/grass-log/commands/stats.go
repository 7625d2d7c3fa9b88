package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/grass-node/grass-go/pkg/log"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents       int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Actions           map[string]int
	Connections       map[string]*ConnectionStats
	Failures          int
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// ConnectionStats holds statistics for a single connection attempt.
type ConnectionStats struct {
	FirstSeen  time.Time
	LastSeen   time.Time
	Events     int
	Endpoint   string
	DeviceID   string
	Authorized bool
	Pongs      int
}

// Collect aggregates every event read from reader.
func Collect(reader *log.Reader) (*Stats, error) {
	stats := &Stats{
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Actions:           make(map[string]int),
		Connections:       make(map[string]*ConnectionStats),
	}

	err := forEach(reader, func(event log.Event) error {
		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		conn, ok := stats.Connections[event.ConnectionID]
		if !ok {
			conn = &ConnectionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
			stats.Connections[event.ConnectionID] = conn
		}
		conn.Events++
		if event.Timestamp.After(conn.LastSeen) {
			conn.LastSeen = event.Timestamp
		}
		if conn.Endpoint == "" {
			conn.Endpoint = event.Endpoint
		}
		if conn.DeviceID == "" {
			conn.DeviceID = event.DeviceID
		}

		switch {
		case event.Message != nil:
			stats.EventsByDirection[event.Direction]++
			stats.Actions[event.Direction.String()+" "+event.Message.Action]++
			if event.Direction == log.DirectionIn && event.Message.Action == "PONG" {
				conn.Pongs++
			}
		case event.StateChange != nil:
			switch event.StateChange.NewState {
			case "ACTIVE":
				conn.Authorized = true
			case "FAILED":
				stats.Failures++
			}
		case event.Error != nil:
			stats.Errors++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// RunStats analyzes the capture file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats, err := Collect(reader)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Broker Session Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.Actions) > 0 {
		fmt.Fprintln(w, "Messages:")
		keys := make([]string, 0, len(stats.Actions))
		for k := range stats.Actions {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %-12s %d\n", k+":", stats.Actions[k])
		}
		fmt.Fprintln(w)
	}

	authorized := 0
	for _, c := range stats.Connections {
		if c.Authorized {
			authorized++
		}
	}
	fmt.Fprintf(w, "Connections: %d (%d authorized, %d failed)\n", len(stats.Connections), authorized, stats.Failures)

	type connInfo struct {
		id    string
		stats *ConnectionStats
	}
	conns := make([]connInfo, 0, len(stats.Connections))
	for id, cs := range stats.Connections {
		conns = append(conns, connInfo{id, cs})
	}
	sort.Slice(conns, func(i, j int) bool {
		return conns[i].stats.FirstSeen.Before(conns[j].stats.FirstSeen)
	})
	if len(conns) > 0 {
		fmt.Fprintln(w)
	}
	for _, c := range conns {
		duration := c.stats.LastSeen.Sub(c.stats.FirstSeen).Round(time.Millisecond)
		fmt.Fprintf(w, "  [%s] %d events, %d pongs, duration %s\n", shortenConnID(c.id), c.stats.Events, c.stats.Pongs, duration)
		if c.stats.Endpoint != "" {
			fmt.Fprintf(w, "           Endpoint: %s\n", c.stats.Endpoint)
		}
		if c.stats.DeviceID != "" {
			fmt.Fprintf(w, "           Device: %s\n", c.stats.DeviceID)
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
