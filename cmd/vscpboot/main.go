// vscpboot loads firmware into VSCP nodes and inspects VSCP traffic.
//
// Connection modes:
//
//	UDP:       --transport udp --address 192.168.1.20:33333
//	WebSocket: --transport ws --address ws://host:8884/ws2 --user admin
//	Serial:    --transport serial --port-name /dev/ttyUSB0 --baud 115200
//
// Settings can also come from a YAML file given with --config; flags win.
package main

import (
	"os"

	"github.com/charmbracelet/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
