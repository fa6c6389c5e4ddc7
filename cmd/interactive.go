package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/station-sim/station-sim/sim"
)

var verboseEvents bool // Print every event, not just narration

const consoleHelp = `Commands:
  start [waiting bays arrivals]  start a simulation (defaults 3 2 15)
  pause                          pause the running simulation
  resume                         resume a paused simulation
  stop                           stop the simulation
  speed N                        set the speed factor (1-10)
  status                         show queue and bay state
  help                           show this help
  quit                           stop and exit`

// consoleCommand is one parsed console line.
type consoleCommand struct {
	name string
	args []int
}

var consoleArity = map[string][]int{
	"start":  {0, 3},
	"pause":  {0},
	"resume": {0},
	"stop":   {0},
	"speed":  {1},
	"status": {0},
	"help":   {0},
	"quit":   {0},
	"exit":   {0},
}

// parseCommand splits a console line into a command and its integer arguments.
func parseCommand(line string) (consoleCommand, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return consoleCommand{}, nil
	}
	name := fields[0]
	arity, ok := consoleArity[name]
	if !ok {
		return consoleCommand{}, fmt.Errorf("unknown command %q (try help)", name)
	}
	args := make([]int, 0, len(fields)-1)
	for _, f := range fields[1:] {
		n, err := strconv.Atoi(f)
		if err != nil {
			return consoleCommand{}, fmt.Errorf("%s: argument %q is not a number", name, f)
		}
		args = append(args, n)
	}
	for _, want := range arity {
		if len(args) == want {
			return consoleCommand{name: name, args: args}, nil
		}
	}
	return consoleCommand{}, fmt.Errorf("%s: wrong number of arguments", name)
}

// console executes commands against one controller. Output goes to out.
type console struct {
	ctrl     *sim.Controller
	out      io.Writer
	defaults sim.Config
}

// execute runs cmd and reports whether the console should exit.
func (c *console) execute(cmd consoleCommand) (bool, error) {
	switch cmd.name {
	case "":
	case "start":
		cfg := c.defaults
		if len(cmd.args) == 3 {
			cfg.WaitingCapacity, cfg.BayCount, cfg.TotalArrivals = cmd.args[0], cmd.args[1], cmd.args[2]
		}
		if err := c.ctrl.Start(cfg); err != nil {
			return false, err
		}
	case "pause":
		if !c.ctrl.Pause() {
			return false, fmt.Errorf("cannot pause in state %s", c.ctrl.State())
		}
	case "resume":
		if !c.ctrl.Resume() {
			return false, fmt.Errorf("cannot resume in state %s", c.ctrl.State())
		}
	case "stop":
		if !c.ctrl.Stop() {
			return false, fmt.Errorf("nothing to stop in state %s", c.ctrl.State())
		}
	case "speed":
		fmt.Fprintf(c.out, "speed factor now %dx\n", c.ctrl.SetSpeedFactor(cmd.args[0]))
	case "status":
		fmt.Fprintln(c.out, formatStatus(c.ctrl.Status()))
	case "help":
		fmt.Fprintln(c.out, consoleHelp)
	case "quit", "exit":
		c.shutdown()
		return true, nil
	}
	return false, nil
}

// shutdown stops any active run and waits briefly for its processes.
func (c *console) shutdown() {
	c.ctrl.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.ctrl.Wait(ctx); err != nil {
		logrus.Warnf("simulation did not tear down: %v", err)
	}
}

// printEvents copies events to out until the channel closes.
func printEvents(out io.Writer, events <-chan sim.Event, verbose bool) {
	for ev := range events {
		switch ev.(type) {
		case sim.LogEvent, sim.RunStateChanged:
		default:
			if !verbose {
				continue
			}
		}
		fmt.Fprintln(out, formatEvent(ev))
	}
}

// lineReader is the part of readline the console loop needs.
type lineReader interface {
	Readline() (string, error)
}

// loop reads and executes commands until quit or until input fails. Ctrl-C,
// end of input and read errors all end the session and stop the active run.
func (c *console) loop(in lineReader) {
	for {
		line, err := in.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			c.shutdown()
			return
		}
		if err != nil {
			fmt.Fprintf(c.out, "Error reading input: %v\n", err)
			c.shutdown()
			return
		}
		parsed, err := parseCommand(line)
		if err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
			continue
		}
		quit, err := c.execute(parsed)
		if err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
		if quit {
			return
		}
	}
}

// interactiveCmd drives the simulation from a line-editing console
var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Control a simulation from an interactive console",
	Run: func(cmd *cobra.Command, args []string) {
		rl, err := readline.New("station> ")
		if err != nil {
			logrus.Fatalf("Error initializing readline: %v", err)
		}
		defer rl.Close()

		events := sim.NewChannelSink()
		ctrl := sim.NewController(events)
		printed := make(chan struct{})
		go func() {
			defer close(printed)
			printEvents(rl.Stdout(), events.Events(), verboseEvents)
		}()

		c := &console{ctrl: ctrl, out: rl.Stdout(), defaults: sim.NewConfig(3, 2, 15)}
		fmt.Fprintln(rl.Stdout(), "Service station console. Type 'help' for commands.")

		c.loop(rl)

		events.Close()
		<-printed
		fmt.Fprintln(rl.Stdout(), "Goodbye!")
	},
}

func init() {
	interactiveCmd.Flags().BoolVar(&verboseEvents, "verbose", false, "Print queue, bay and progress events as well as narration")
}
