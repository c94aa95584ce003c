package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/ossia/ossia-sc/pkg/discovery"
	"github.com/ossia/ossia-sc/pkg/host"
	"github.com/ossia/ossia-sc/pkg/inspect"
	"github.com/ossia/ossia-sc/pkg/primitives"
)

// PrimitivePrefix starts every operation name.
const PrimitivePrefix = "_OSSIA_"

// Config configures a Console.
type Config struct {
	// Runtime executes the operations.
	Runtime *primitives.Runtime

	// Env holds the named host values.
	Env *Env

	// Browser finds OSCQuery servers (optional).
	Browser discovery.Browser

	// SaveSession persists the live session (optional).
	SaveSession func() error
}

// Console handles interactive mode for ossia-sc.
type Console struct {
	cfg       Config
	inspector *inspect.Inspector
	formatter *inspect.Formatter
	out       io.Writer
	rl        *readline.Instance
}

// New creates a new interactive console reading from the terminal.
func New(cfg Config) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ossia> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	c := newConsole(cfg, rl.Stdout())
	c.rl = rl
	c.cfg.Env.SetOutput(rl.Stdout())
	return c, nil
}

func newConsole(cfg Config, out io.Writer) *Console {
	if cfg.Env == nil {
		cfg.Env = NewEnv()
	}
	return &Console{
		cfg:       cfg,
		inspector: inspect.NewInspector(cfg.Runtime),
		formatter: inspect.NewFormatter(),
		out:       out,
	}
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if !c.Exec(ctx, line) {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Exec runs one command line. It returns false when the line asks to quit.
func (c *Console) Exec(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" || strings.HasPrefix(input, "//") {
		return true
	}

	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch strings.ToLower(cmd) {
	case "help", "?":
		c.printHelp()

	case "new", "n":
		c.cmdNew(args)

	case "let":
		c.cmdLet(rest)

	case "call", "c":
		c.cmdCall(rest)

	case "vars", "v":
		c.cmdVars()

	case "prims", "p":
		c.cmdPrims()

	case "devices", "d":
		c.cmdDevices()

	case "tree", "ls", "t":
		c.cmdTree(args)

	case "attrs", "a":
		c.cmdAttrs(args)

	case "get", "g":
		c.cmdGet(args)

	case "set", "s":
		c.cmdSet(args)

	case "browse", "b":
		c.cmdBrowse(ctx, args)

	case "save":
		c.cmdSave()

	case "quit", "exit", "q":
		return false

	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Commands:
  new <var> <Class>           Create a host object (OSSIA_Device, OSSIA_Parameter, ...)
  let <var> <literal>         Bind a literal value
  call <op> [args...]         Run an operation; frame[0] is the receiver
  vars                        List bound variables
  prims                       List operations with their argument count
  devices                     List live devices
  tree [path]                 Show a node tree, e.g. "synth:/osc"
  attrs <path>                Show every attribute of a node
  get <path@attr>             Read one attribute
  set <path[@attr]> <value>   Write an attribute (default: value)
  browse [seconds]            Find OSCQuery servers on the network
  save                        Save the session
  quit                        Exit

Literals: $var nil true false 42 1.5 "text" 'sym sym #c Float [a b]`)
}

func (c *Console) cmdNew(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.out, "Usage: new <var> <Class>")
		return
	}
	c.cfg.Env.Bind(args[0], host.Obj(host.NewObject(args[1], 1)))
	fmt.Fprintf(c.out, "%s = a %s\n", args[0], args[1])
}

func (c *Console) cmdLet(rest string) {
	name, text, ok := strings.Cut(rest, " ")
	if !ok || name == "" {
		fmt.Fprintln(c.out, "Usage: let <var> <literal>")
		return
	}
	slots, err := ParseArgs(text, c.cfg.Env)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if len(slots) != 1 {
		fmt.Fprintf(c.out, "Error: want one literal, got %d\n", len(slots))
		return
	}
	c.cfg.Env.Bind(name, slots[0])
	fmt.Fprintf(c.out, "%s = %s\n", name, slots[0])
}

// resolvePrimitive accepts an operation name with or without its prefix.
func (c *Console) resolvePrimitive(name string) string {
	if _, ok := c.cfg.Runtime.Argc(name); ok {
		return name
	}
	if _, ok := c.cfg.Runtime.Argc(PrimitivePrefix + name); ok {
		return PrimitivePrefix + name
	}
	return name
}

func (c *Console) cmdCall(rest string) {
	name, text, _ := strings.Cut(rest, " ")
	if name == "" {
		fmt.Fprintln(c.out, "Usage: call <op> [args...]")
		return
	}
	name = c.resolvePrimitive(name)

	slots, err := ParseArgs(text, c.cfg.Env)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}

	frame := primitives.Frame(slots)
	if err := c.cfg.Runtime.Call(name, frame); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if len(frame) > 0 {
		fmt.Fprintf(c.out, "-> %s\n", c.describe(frame[0]))
	}
}

// describe formats a slot, naming bound objects.
func (c *Console) describe(s host.Slot) string {
	if obj, ok := s.AsObject(); ok {
		if name, ok := c.cfg.Env.NameOf(obj); ok {
			return "$" + name
		}
	}
	return s.String()
}

func (c *Console) cmdVars() {
	names := c.cfg.Env.Names()
	if len(names) == 0 {
		fmt.Fprintln(c.out, "  (no variables)")
		return
	}
	for _, name := range names {
		s, _ := c.cfg.Env.Lookup(name)
		fmt.Fprintf(c.out, "  %s = %s\n", name, s)
	}
}

func (c *Console) cmdPrims() {
	for _, name := range c.cfg.Runtime.Names() {
		argc, _ := c.cfg.Runtime.Argc(name)
		fmt.Fprintf(c.out, "  %-40s %d\n", name, argc)
	}
}

func (c *Console) cmdDevices() {
	devices := c.cfg.Runtime.Devices()
	if len(devices) == 0 {
		fmt.Fprintln(c.out, "  (no devices)")
		return
	}
	for _, d := range devices {
		fmt.Fprintf(c.out, "  %s (%d children)\n", d.Name(), len(d.Root().Children()))
	}
}

func (c *Console) parsePath(args []string, usage string) (*inspect.Path, bool) {
	text := "/"
	if len(args) > 0 {
		text = args[0]
	} else if usage != "" {
		fmt.Fprintln(c.out, usage)
		return nil, false
	}
	path, err := inspect.ParsePath(text)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return nil, false
	}
	return path, true
}

func (c *Console) cmdTree(args []string) {
	path, ok := c.parsePath(args, "")
	if !ok {
		return
	}
	info, err := c.inspector.Inspect(path)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprint(c.out, c.formatter.FormatTree(info))
}

func (c *Console) cmdAttrs(args []string) {
	path, ok := c.parsePath(args, "Usage: attrs <path>")
	if !ok {
		return
	}
	rows, err := c.inspector.Attributes(path, c.formatter)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "%s:\n%s", path, c.formatter.FormatAttributeTable(rows))
}

func (c *Console) cmdGet(args []string) {
	path, ok := c.parsePath(args, "Usage: get <path@attr>")
	if !ok {
		return
	}
	if path.Attribute == "" {
		path.Attribute = inspect.AttrValue
	}
	text, err := c.inspector.ReadAttribute(path, c.formatter)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "%s = %s\n", path, text)
}

// cmdSet writes like a network peer: outside the gate, firing callbacks.
func (c *Console) cmdSet(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: set <path[@attr]> <value>")
		return
	}
	path, ok := c.parsePath(args[:1], "")
	if !ok {
		return
	}
	if err := c.inspector.WriteAttribute(path, strings.Join(args[1:], " ")); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "OK")
}

func (c *Console) cmdBrowse(ctx context.Context, args []string) {
	if c.cfg.Browser == nil {
		fmt.Fprintln(c.out, "Browsing is disabled")
		return
	}
	wait := 3 * time.Second
	if len(args) > 0 {
		secs, err := strconv.Atoi(args[0])
		if err != nil || secs <= 0 {
			fmt.Fprintf(c.out, "Error: invalid duration %q\n", args[0])
			return
		}
		wait = time.Duration(secs) * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	entries, err := c.cfg.Browser.Browse(ctx, discovery.ServiceTypeOSCQuery)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	found := 0
	for entry := range entries {
		found++
		fmt.Fprintf(c.out, "  %s  %s:%d %v\n", entry.Instance, entry.Host, entry.Port, entry.Addresses)
	}
	fmt.Fprintf(c.out, "%d server(s) found\n", found)
}

func (c *Console) cmdSave() {
	if c.cfg.SaveSession == nil {
		fmt.Fprintln(c.out, "No session file configured")
		return
	}
	if err := c.cfg.SaveSession(); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "Session saved")
}
