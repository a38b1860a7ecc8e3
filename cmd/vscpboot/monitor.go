package main

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"

	"github.com/moffa90/go-vscp/protocol"
	"github.com/moffa90/go-vscp/transport"
)

// Output formats of the monitor command.
const (
	formatString = "string"
	formatJSON   = "json"
	formatXML    = "xml"
)

type monitorOptions struct {
	filter string
	mask   string
	format string
	record string
	replay string
	count  int
}

func newMonitorCmd(a *app) *cobra.Command {
	o := &monitorOptions{}
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Print VSCP events as they arrive",
		Long: `Continuously receive and print VSCP events.

Filter and mask use the "priority,class,type,GUID" form. Events can be
recorded to a CBOR file with --record and printed again later with --replay,
which needs no connection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd, a, o)
		},
	}
	cmd.Flags().StringVar(&o.filter, "filter", "", "receive filter")
	cmd.Flags().StringVar(&o.mask, "mask", "", "receive mask")
	cmd.Flags().StringVarP(&o.format, "format", "f", formatString, "output format: string, json or xml")
	cmd.Flags().StringVar(&o.record, "record", "", "also append received events to this CBOR file")
	cmd.Flags().StringVar(&o.replay, "replay", "", "print events from a CBOR recording instead of the bus")
	cmd.Flags().IntVar(&o.count, "count", 0, "stop after this many events (0 for no limit)")
	return cmd
}

func runMonitor(cmd *cobra.Command, a *app, o *monitorOptions) error {
	printEvent, err := eventPrinter(cmd.OutOrStdout(), o.format)
	if err != nil {
		return err
	}

	var filter *protocol.Filter
	if o.filter != "" || o.mask != "" {
		filter, err = protocol.ParseFilter(o.filter, o.mask)
		if err != nil {
			return err
		}
	}

	if o.replay != "" {
		return replayRecording(o.replay, filter, o.count, printEvent)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := a.connect(ctx, filter)
	if err != nil {
		return err
	}
	defer conn.Close()

	var rec *cbor.Encoder
	if o.record != "" {
		f, err := os.OpenFile(o.record, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open recording: %w", err)
		}
		defer f.Close()
		rec = cbor.NewEncoder(f)
	}

	for n := 0; o.count == 0 || n < o.count; {
		ev, err := conn.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, transport.ErrClosed) {
				a.log.Info("monitor stopped", "events", n)
				return nil
			}
			return err
		}
		if !filter.Match(ev) {
			continue
		}
		if rec != nil {
			if err := rec.Encode(ev); err != nil {
				return fmt.Errorf("record event: %w", err)
			}
		}
		if err := printEvent(ev); err != nil {
			return err
		}
		n++
	}
	return nil
}

// eventPrinter returns a function writing one event per line in format.
func eventPrinter(w io.Writer, format string) (func(*protocol.Event) error, error) {
	switch format {
	case formatString:
		return func(ev *protocol.Event) error {
			if ev.Class == protocol.ClassProtocol {
				_, err := fmt.Fprintf(w, "%s  (%s)\n", ev, protocol.TypeName(ev.Type))
				return err
			}
			_, err := fmt.Fprintln(w, ev)
			return err
		}, nil
	case formatJSON:
		enc := json.NewEncoder(w)
		return func(ev *protocol.Event) error { return enc.Encode(ev) }, nil
	case formatXML:
		return func(ev *protocol.Event) error {
			b, err := xml.Marshal(ev)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "%s\n", b)
			return err
		}, nil
	}
	return nil, fmt.Errorf("unknown format %q (use string, json or xml)", format)
}

func replayRecording(path string, filter *protocol.Filter, count int, printEvent func(*protocol.Event) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	dec := cbor.NewDecoder(f)
	for n := 0; count == 0 || n < count; {
		var ev protocol.Event
		if err := dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read recording: %w", err)
		}
		if !filter.Match(&ev) {
			continue
		}
		if err := printEvent(&ev); err != nil {
			return err
		}
		n++
	}
	return nil
}
