package main

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/moffa90/go-vscp/internal/config"
	"github.com/moffa90/go-vscp/transport"
)

const version = "0.3.0"

// app carries the state shared by all commands.
type app struct {
	configPath string
	flags      config.Config
	cfg        config.Config
	log        *log.Logger

	// dial opens the connection to the bus. Tests replace it.
	dial func(ctx context.Context, a *app, extra []transport.Option) (eventConn, string, error)
}

func newApp() *app {
	return &app{
		flags: config.Default(),
		dial:  dialTransport,
	}
}

func newRootCmd() *cobra.Command {
	return newApp().command()
}

// command builds the command tree bound to a.
func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:   "vscpboot",
		Short: "VSCP bootloader and bus tool",
		Long: `vscpboot - load firmware into VSCP nodes over UDP, websocket or serial.

Besides loading firmware it can read a node's standard registers, monitor
bus traffic and run the AES frame cipher by hand.

For websocket authentication the password is read from the config file or
the VSCP_PASSWORD environment variable, or prompted interactively. There is
no --password flag so credentials stay out of shell history.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	a.flags.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newLoadCmd(a),
		newInfoCmd(a),
		newMonitorCmd(a),
		newCryptCmd(a, true),
		newCryptCmd(a, false),
	)
	return root
}

// setup merges the config file under the flags and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	file := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		file = loaded
	}
	a.cfg = a.flags.MergeFile(file, cmd.Flags())

	level := log.InfoLevel
	if a.cfg.Verbose {
		level = log.DebugLevel
	}
	a.log = log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Level:           level,
		ReportTimestamp: a.cfg.Verbose,
		Prefix:          "vscpboot",
	})
	return nil
}
