package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-vscp/bootloader"
	"github.com/moffa90/go-vscp/protocol"
)

func newInfoCmd(a *app) *cobra.Command {
	t := &target{}
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Read and decode a node's standard registers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := a.connect(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer conn.Close()

			sess, err := t.session(a, conn)
			if err != nil {
				return err
			}
			regs, err := sess.ReadStandardRegisters(cmd.Context())
			if err != nil {
				return err
			}
			printRegisters(cmd.OutOrStdout(), regs)
			return nil
		},
	}
	t.addFlags(cmd)
	return cmd
}

func printRegisters(w io.Writer, r *bootloader.StandardRegisters) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	major, minor := r.VSCPVersion()
	alg := r.BootloaderAlgorithm()
	algName := "other"
	if alg == protocol.BootAlgorithmVSCP {
		algName = "VSCP"
	}

	fmt.Fprintf(tw, "GUID:\t%s\n", r.GUID())
	fmt.Fprintf(tw, "Nickname:\t0x%02X\n", r.Nickname())
	fmt.Fprintf(tw, "VSCP version:\t%d.%d\n", major, minor)
	fmt.Fprintf(tw, "Firmware version:\t%s\n", r.FirmwareVersion())
	fmt.Fprintf(tw, "Firmware device code:\t0x%04X\n", r.FirmwareDeviceCode())
	fmt.Fprintf(tw, "Bootloader algorithm:\t%d (%s)\n", alg, algName)
	fmt.Fprintf(tw, "Manufacturer id:\t0x%08X\n", r.ManufacturerID())
	fmt.Fprintf(tw, "Manufacturer sub id:\t0x%08X\n", r.ManufacturerSubID())
	fmt.Fprintf(tw, "User id:\t% X\n", r.UserID())
	fmt.Fprintf(tw, "Alarm status:\t0x%02X\n", r.AlarmStatus())
	fmt.Fprintf(tw, "Node control:\t0x%02X\n", r.NodeControl())
	fmt.Fprintf(tw, "Page:\t%d\n", r.Page())
	fmt.Fprintf(tw, "Buffer size:\t%d\n", r.BufferSize())
	fmt.Fprintf(tw, "Device family:\t0x%08X\n", r.StdDeviceFamily())
	fmt.Fprintf(tw, "Device type:\t0x%08X\n", r.StdDeviceType())
	fmt.Fprintf(tw, "MDF:\t%s\n", r.MDFURL())
}
