package commands

import (
	"fmt"
	"time"

	"github.com/ossia/ossia-sc/pkg/log"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output    string
	ConnID    string
	Device    string
	Protocol  string
	Address   string
	TimeStart string
	TimeEnd   string
	Layer     string
	Direction string
	Category  string
}

// BuildFilter turns command line options into a reader filter.
func BuildFilter(opts FilterOptions) (log.Filter, error) {
	filter := log.Filter{
		ConnectionID: opts.ConnID,
		Device:       opts.Device,
		Protocol:     opts.Protocol,
		Address:      opts.Address,
	}

	for _, bound := range []struct {
		name string
		text string
		dst  **time.Time
	}{
		{"time-start", opts.TimeStart, &filter.TimeStart},
		{"time-end", opts.TimeEnd, &filter.TimeEnd},
	} {
		if bound.text == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, bound.text)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid %s format: %w", bound.name, err)
		}
		*bound.dst = &t
	}

	if opts.Layer != "" {
		l, err := parseLayer(opts.Layer)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Layer = &l
	}
	if opts.Direction != "" {
		d, err := parseDirection(opts.Direction)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Direction = &d
	}
	if opts.Category != "" {
		c, err := parseCategory(opts.Category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}
	return filter, nil
}

// RunFilter copies the matching events of path into opts.Output and
// returns how many were written.
func RunFilter(path string, opts FilterOptions) (int, error) {
	filter, err := BuildFilter(opts)
	if err != nil {
		return 0, err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	out, err := log.NewFileLogger(opts.Output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output logger: %w", err)
	}

	err = eachEvent(reader, func(e log.Event) error {
		out.Log(e)
		return nil
	})
	written, failed := out.Stats()
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && failed > 0 {
		err = fmt.Errorf("%d events could not be written", failed)
	}
	return written, err
}
