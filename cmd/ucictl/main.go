// Command ucictl is an interactive REPL over a dispatcher.Dispatcher,
// always wired to hal/fakehal so the dispatcher/driver pair can be
// exercised without real hardware. Grounded on the teacher repo's
// cmd/boardtest convention of a small main wiring bus/services together
// and printing to stdout; REPL line tokenizing uses google/shlex (already
// reachable in the teacher's module graph as an indirect dependency) and
// output coloring uses fatih/color in the style of estuary-flow's
// flowctl command output.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/shlex"

	"uwbuci/bus"
	"uwbuci/dispatcher"
	"uwbuci/driver"
	"uwbuci/hal/fakehal"
	"uwbuci/log"
	"uwbuci/uci"
)

func main() {
	logger := log.NewText("ucictl")
	h := fakehal.New()
	d := dispatcher.New(h, driver.DefaultConfig(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)
	defer d.Stop()

	sub := d.Subscribe()
	defer d.Unsubscribe(sub)
	go printNotifications(sub)

	fmt.Println("ucictl - interactive UWB UCI dispatcher shell (type 'help')")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		args, err := shlex.Split(line)
		if err != nil {
			color.Red("parse error: %v", err)
			continue
		}
		if !runCommand(ctx, d, args) {
			return
		}
	}
}

func printNotifications(sub *bus.Subscription) {
	for msg := range sub.Channel() {
		n, ok := msg.Payload.(uci.Notification)
		if !ok {
			continue
		}
		switch v := n.(type) {
		case uci.DeviceStatusNotification:
			color.Cyan("[notif] device status: %s", v.State)
		case uci.SessionStatusNotification:
			color.Cyan("[notif] session %d status: %d", v.SessionID, v.State)
		case uci.GenericErrorNotification:
			color.Yellow("[notif] generic error: %s", v.St)
		case uci.ShortRangeDataNotification:
			color.Cyan("[notif] short range data: session=%d bytes=%d", v.SessionID, len(v.Data))
		case uci.ExtendedRangeDataNotification:
			color.Cyan("[notif] extended range data: session=%d bytes=%d", v.SessionID, len(v.Data))
		default:
			color.Cyan("[notif] %T", v)
		}
	}
}

func runCommand(ctx context.Context, d *dispatcher.Dispatcher, args []string) bool {
	switch args[0] {
	case "help":
		printHelp()
	case "quit", "exit":
		return false
	case "device-info":
		submitAndPrint(ctx, d, uci.DeviceInfoCmd{})
	case "session-count":
		submitAndPrint(ctx, d, uci.SessionGetCountCmd{})
	case "enable":
		submitAndPrint(ctx, d, uci.Enable{})
	case "disable":
		submitAndPrint(ctx, d, uci.Disable{})
	case "session-init":
		if len(args) < 2 {
			color.Red("usage: session-init <session-id>")
			return true
		}
		id, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			color.Red("bad session id: %v", err)
			return true
		}
		submitAndPrint(ctx, d, uci.SessionInitCmd{SessionID: uint32(id)})
	default:
		color.Yellow("unknown command %q, try 'help'", args[0])
	}
	return true
}

func submitAndPrint(ctx context.Context, d *dispatcher.Dispatcher, cmd uci.Command) {
	rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	resp, err := d.SubmitBlocking(rctx, cmd)
	if err != nil {
		color.Red("%s: %v", cmd.Kind(), err)
		return
	}
	color.Green("%s: status=%s", cmd.Kind(), resp.Status())
}

func printHelp() {
	fmt.Println(`commands:
  enable                 open the HAL and wait for device-ready
  disable                close the HAL
  device-info            query chip identification
  session-count          query the number of allocated sessions
  session-init <id>      allocate a ranging session
  quit                   exit`)
}
