package main

import (
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-vscp/bootloader"
	"github.com/moffa90/go-vscp/ihex"
)

type loadOptions struct {
	target
	deviceCode      string
	abortOnMismatch bool
}

func newLoadCmd(a *app) *cobra.Command {
	o := &loadOptions{}
	cmd := &cobra.Command{
		Use:   "load <firmware.hex>",
		Short: "Load an Intel HEX firmware image into a node",
		Long: `Load an Intel HEX firmware image into a node using the VSCP bootloader.

The node is addressed by nickname or by GUID. Its standard registers are read
first; the node must report the VSCP bootloader algorithm. When the firmware's
device code differs from the node's, the load continues with a warning unless
--abort-on-mismatch is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, a, o, args[0])
		},
	}
	o.addFlags(cmd)
	cmd.Flags().StringVar(&o.deviceCode, "device-code", "0", "device code the firmware is built for")
	cmd.Flags().BoolVar(&o.abortOnMismatch, "abort-on-mismatch", false, "stop when the device code does not match")
	return cmd
}

func runLoad(cmd *cobra.Command, a *app, o *loadOptions, path string) error {
	code, err := strconv.ParseUint(o.deviceCode, 0, 16)
	if err != nil {
		return fmt.Errorf("invalid device code %q: %w", o.deviceCode, err)
	}

	img, err := ihex.Parse(path)
	if err != nil {
		return err
	}
	a.log.Debug("firmware parsed", "file", path, "bytes", img.Len(), "ranges", len(img.Ranges()))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := a.connect(ctx, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	out := cmd.OutOrStdout()
	sess, err := o.session(a, conn, bootloader.WithStatusReporter(newProgressPrinter(out)))
	if err != nil {
		return err
	}

	if err := sess.Load(ctx, img, uint16(code), o.abortOnMismatch); err != nil {
		return fmt.Errorf("load failed in state %s: %w", sess.State(), err)
	}
	fmt.Fprintf(out, "Firmware loaded: %d blocks of %d bytes, checksum 0x%04X\n",
		sess.NumBlocks(), sess.BlockSize(), sess.Checksum())
	return nil
}

// progressPrinter prints milestones and each new tenth of progress.
type progressPrinter struct {
	w     io.Writer
	tenth int
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, tenth: -1}
}

func (p *progressPrinter) Report(progress int, msg string) {
	if progress == bootloader.ProgressMilestone {
		fmt.Fprintln(p.w, msg)
		return
	}
	if progress/10 == p.tenth && progress != 100 {
		return
	}
	p.tenth = progress / 10
	fmt.Fprintf(p.w, "[%3d%%] %s\n", progress, msg)
}
