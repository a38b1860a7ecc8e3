package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-vscp/bootloader"
	"github.com/moffa90/go-vscp/protocol"
)

// target selects the node a command talks to.
type target struct {
	nickname string
	guid     string
}

func (t *target) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&t.nickname, "nickname", "n", "", "node nickname (0-255, hex with 0x)")
	cmd.Flags().StringVarP(&t.guid, "guid", "g", "", "node GUID (FF:FF:...:2A)")
	cmd.MarkFlagsMutuallyExclusive("nickname", "guid")
	cmd.MarkFlagsOneRequired("nickname", "guid")
}

// session opens a bootloader session for the selected node.
func (t *target) session(a *app, conn eventConn, opts ...bootloader.Option) (*bootloader.Session, error) {
	opts = append([]bootloader.Option{
		bootloader.WithLogger(logAdapter{a.log}),
		bootloader.WithTimeout(a.cfg.Timeout),
		bootloader.WithRegisterTimeout(a.cfg.RegisterTimeout),
		bootloader.WithInterfaceGUID(a.cfg.IfGUID()),
	}, opts...)

	if t.guid != "" {
		g, err := protocol.ParseGUID(t.guid)
		if err != nil {
			return nil, err
		}
		if g.IsZero() {
			return nil, errors.New("guid must not be all zero")
		}
		return bootloader.NewGUIDSession(conn, g, opts...), nil
	}

	n, err := strconv.ParseUint(t.nickname, 0, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid nickname %q: %w", t.nickname, err)
	}
	return bootloader.NewNicknameSession(conn, byte(n), opts...), nil
}
