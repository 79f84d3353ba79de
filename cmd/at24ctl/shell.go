package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ardnew/softeeprom/bus"
	"github.com/ardnew/softeeprom/eeprom"
)

// shell is the interactive command loop. It holds at most one open session.
type shell struct {
	app     *app
	out     io.Writer
	session *eeprom.Session
}

func newShellCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("list"),
		readline.PcItem("attach"),
		readline.PcItem("detach"),
		readline.PcItem("open"),
		readline.PcItem("close"),
		readline.PcItem("seek",
			readline.PcItem("start"),
			readline.PcItem("cur"),
			readline.PcItem("end"),
		),
		readline.PcItem("read"),
		readline.PcItem("write"),
		readline.PcItem("dump"),
		readline.PcItem("status"),
		readline.PcItem("quit"),
	)
}

// runShell reads commands until quit, EOF or ctx is cancelled.
func runShell(ctx context.Context, a *app) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "at24> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    newShellCompleter(),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	sh := &shell{app: a, out: rl.Stdout()}
	defer sh.closeSession()
	sh.printHelp()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			return nil
		}
		if sh.exec(ctx, line) {
			return nil
		}
	}
}

// exec runs one command line and reports whether the shell should exit.
func (sh *shell) exec(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		sh.printHelp()
	case "list", "ls":
		err = sh.app.cmdList()
	case "attach":
		err = sh.cmdAttach(args)
	case "detach":
		err = sh.cmdDetach(args)
	case "open", "o":
		err = sh.cmdOpen(args)
	case "close":
		sh.closeSession()
	case "seek", "s":
		err = sh.cmdSeek(args)
	case "read", "r":
		err = sh.cmdRead(ctx, args)
	case "write", "w":
		err = sh.cmdWrite(ctx, args)
	case "dump":
		err = sh.cmdDump(ctx)
	case "status":
		sh.cmdStatus()
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(sh.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	if err != nil {
		fmt.Fprintf(sh.out, "error: %v\n", err)
	}
	return false
}

func (sh *shell) printHelp() {
	fmt.Fprintln(sh.out, `
EEPROM Shell Commands:
  Devices:
    list                  - List attached devices
    attach <addr> <size>  - Attach a device
    detach <node>         - Detach a device

  Session:
    open <node>           - Open a device (closes the current session)
    close                 - Close the current session
    seek <off> [whence]   - Move the offset (whence: start, cur, end)
    read <n>              - Read n bytes at the offset
    write <data>          - Write text, or hex bytes prefixed with 0x
    dump                  - Hex dump from the offset to the end
    status                - Show the current session

    help                  - Show this help
    quit                  - Exit`)
}

func (sh *shell) current() (*eeprom.Session, error) {
	if sh.session == nil {
		return nil, fmt.Errorf("%w: no open device (use 'open <node>')", errUsage)
	}
	return sh.session, nil
}

func (sh *shell) closeSession() {
	if sh.session != nil {
		sh.session.Close()
		sh.session = nil
	}
}

func (sh *shell) cmdAttach(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: attach <addr> <size>", errUsage)
	}
	addr, err := parseInt(args[0])
	if err != nil {
		return err
	}
	size, err := parseInt(args[1])
	if err != nil {
		return err
	}
	if addr < 0 || addr > int64(bus.MaxAddr) || size < 0 || size > eeprom.MaxCapacity {
		return fmt.Errorf("%w: address or size out of range", errUsage)
	}

	minor, err := sh.app.attach(eeprom.AttachConfig{Address: bus.Addr(addr), Capacity: uint32(size)})
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "attached %s\n", eeprom.NodeName(minor))
	return nil
}

func (sh *shell) cmdDetach(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: detach <node>", errUsage)
	}
	minor, err := parseMinor(args[0])
	if err != nil {
		return err
	}
	if err := sh.app.drv.Detach(minor); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "detached %s\n", eeprom.NodeName(minor))
	return nil
}

func (sh *shell) cmdOpen(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: open <node>", errUsage)
	}
	s, err := sh.app.open(args[0])
	if err != nil {
		return err
	}
	sh.closeSession()
	sh.session = s
	fmt.Fprintf(sh.out, "opened %s\n", s.Instance())
	return nil
}

func (sh *shell) cmdSeek(args []string) error {
	s, err := sh.current()
	if err != nil {
		return err
	}
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: seek <offset> [start|cur|end]", errUsage)
	}
	offset, err := parseInt(args[0])
	if err != nil {
		return err
	}
	whence := io.SeekStart
	if len(args) == 2 {
		switch args[1] {
		case "start":
		case "cur":
			whence = io.SeekCurrent
		case "end":
			whence = io.SeekEnd
		default:
			return fmt.Errorf("%w: bad whence %q", errUsage, args[1])
		}
	}
	pos, err := s.Seek(offset, whence)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "offset %d\n", pos)
	return nil
}

func (sh *shell) cmdRead(ctx context.Context, args []string) error {
	s, err := sh.current()
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: read <n>", errUsage)
	}
	n, err := parseInt(args[0])
	if err != nil {
		return err
	}
	data, err := s.Read(ctx, int(n))
	if err != nil {
		return err
	}
	if len(data) == 0 {
		fmt.Fprintln(sh.out, "(end of device)")
		return nil
	}
	fmt.Fprintln(sh.out, hex.EncodeToString(data))
	return nil
}

func (sh *shell) cmdWrite(ctx context.Context, args []string) error {
	s, err := sh.current()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: write <data>", errUsage)
	}
	data, err := parseData(strings.Join(args, " "))
	if err != nil {
		return err
	}
	n, err := s.Write(ctx, data)
	fmt.Fprintf(sh.out, "wrote %d of %d bytes\n", n, len(data))
	return err
}

func (sh *shell) cmdDump(ctx context.Context) error {
	s, err := sh.current()
	if err != nil {
		return err
	}
	data, err := s.Read(ctx, int(s.Instance().Capacity()))
	if err != nil {
		return err
	}
	fmt.Fprint(sh.out, hex.Dump(data))
	return nil
}

func (sh *shell) cmdStatus() {
	if sh.session == nil {
		fmt.Fprintln(sh.out, "no open device")
		return
	}
	fmt.Fprintf(sh.out, "%s offset %d session %s\n",
		sh.session.Instance(), sh.session.Offset(), sh.session.ID())
}
