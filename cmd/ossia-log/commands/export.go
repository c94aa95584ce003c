package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ossia/ossia-sc/pkg/log"
)

// csvHeader lists the export columns. detail summarises the payload.
var csvHeader = []string{
	"timestamp", "connection_id", "direction", "layer", "category",
	"protocol", "device", "type", "address", "detail",
}

// RunExport converts the log file to jsonl or csv, on stdout when output
// is empty.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return export(reader, format, w)
}

func export(reader *log.Reader, format string, w io.Writer) error {
	switch format {
	case "jsonl":
		enc := json.NewEncoder(w)
		return eachEvent(reader, func(e log.Event) error {
			return enc.Encode(e)
		})

	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeader); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		err := eachEvent(reader, func(e log.Event) error {
			return cw.Write(csvRow(e))
		})
		cw.Flush()
		if err != nil {
			return err
		}
		return cw.Error()
	}
	return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
}

// eachEvent calls fn for every remaining event of reader.
func eachEvent(reader *log.Reader, fn func(log.Event) error) error {
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := fn(event); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
	}
}

func csvRow(e log.Event) []string {
	kind, addr, detail := "unknown", "", ""
	switch {
	case e.Message != nil:
		kind, addr = e.Message.Type.String(), e.Message.Address
		args := make([]string, len(e.Message.Args))
		for i, a := range e.Message.Args {
			args[i] = fmt.Sprint(a)
		}
		detail = strings.Join(args, " ")
	case e.Callback != nil:
		kind, addr = "callback", e.Callback.Address
		detail = e.Callback.Selector
		if e.Callback.Dropped {
			detail += " dropped"
		} else if e.Callback.Duration != nil {
			detail += " " + e.Callback.Duration.String()
		}
	case e.StateChange != nil:
		kind = "state"
		detail = fmt.Sprintf("%s %s->%s", e.StateChange.Entity, e.StateChange.OldState, e.StateChange.NewState)
	case e.Error != nil:
		kind, addr, detail = "error", e.Error.Context, e.Error.Message
	}

	return []string{
		e.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		e.ConnectionID,
		e.Direction.String(),
		e.Layer.String(),
		e.Category.String(),
		e.Protocol,
		e.Device,
		kind,
		addr,
		detail,
	}
}
