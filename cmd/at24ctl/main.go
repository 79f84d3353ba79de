// Command at24ctl attaches AT24 EEPROMs and reads or writes their contents.
//
// Devices come from a YAML configuration file (see package config) or from
// the -addr and -size flags. The bus is either a simulated bus holding
// blank chips or a Linux i2c-dev adapter.
//
// Usage:
//
//	at24ctl [flags] <command> [args]
//
// Commands:
//
//	list                          List attached devices (and i2c adapters on linux)
//	read <node> [offset] [length] Read bytes and print them in hex
//	write <node> <offset> <data>  Write text, or hex bytes when data starts with 0x
//	dump <node>                   Hex dump the whole device
//	trace <file>                  Print a recorded bus trace
//	shell                         Start an interactive session
//
// Flags:
//
//	-config string     Configuration file path
//	-bus string        Bus kind: sim, linux (overrides config)
//	-device string     i2c-dev adapter node (overrides config)
//	-addr uint         Attach one device at this address
//	-size uint         Size in bytes of the -addr device
//	-trace string      Record bus transactions to this file
//	-session string    trace: only show events of this session
//	-log-level string  Log level: debug, info, warn, error
//	-json              Use JSON log format
//
// Examples:
//
//	# Write and read back a 256 byte chip at 0x50 on /dev/i2c-1
//	at24ctl -bus linux -addr 0x50 -size 256 write eeprom0 0 hello
//	at24ctl -bus linux -addr 0x50 -size 256 read eeprom0 0 5
//
//	# Explore a simulated 8KiB chip interactively
//	at24ctl -addr 0x50 -size 8192 shell
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardnew/softeeprom/bus"
	"github.com/ardnew/softeeprom/config"
	"github.com/ardnew/softeeprom/eeprom"
	"github.com/ardnew/softeeprom/pkg"
)

// component identifies this executable for structured logging.
const component pkg.Component = "at24ctl"

var errUsage = errors.New("usage")

// options holds the command line flags.
type options struct {
	ConfigFile string
	BusKind    string
	Device     string
	Addr       uint
	Size       uint
	Trace      string
	Session    string
	LogLevel   string
	JSON       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("at24ctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.ConfigFile, "config", "", "Configuration file path")
	fs.StringVar(&opts.BusKind, "bus", "", "Bus kind: sim, linux (overrides config)")
	fs.StringVar(&opts.Device, "device", "", "i2c-dev adapter node (overrides config)")
	fs.UintVar(&opts.Addr, "addr", 0, "Attach one device at this address")
	fs.UintVar(&opts.Size, "size", 0, "Size in bytes of the -addr device")
	fs.StringVar(&opts.Trace, "trace", "", "Record bus transactions to this file")
	fs.StringVar(&opts.Session, "session", "", "trace: only show events of this session")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.BoolVar(&opts.JSON, "json", false, "Use JSON log format")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: at24ctl [flags] list|read|write|dump|trace|shell [args]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "at24ctl: %v\n", err)
		return 1
	}
	if err := cfg.ApplyLogging(stderr); err != nil {
		fmt.Fprintf(stderr, "at24ctl: %v\n", err)
		return 1
	}

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]

	// Reading a trace needs no bus.
	if cmd == "trace" {
		err = cmdTrace(stdout, cmdArgs, opts.Session)
		return exitCode(stderr, err)
	}

	a, err := newApp(cfg, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "at24ctl: %v\n", err)
		return 1
	}
	defer a.Close()

	switch cmd {
	case "list":
		err = a.cmdList()
	case "read":
		err = a.cmdRead(ctx, cmdArgs)
	case "write":
		err = a.cmdWrite(ctx, cmdArgs)
	case "dump":
		err = a.cmdDump(ctx, cmdArgs)
	case "shell":
		err = runShell(ctx, a)
	default:
		err = fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	return exitCode(stderr, err)
}

func exitCode(stderr io.Writer, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "at24ctl: %v\n", err)
		return 2
	default:
		pkg.LogError(component, "command failed", "error", err)
		fmt.Fprintf(stderr, "at24ctl: %v\n", err)
		return 1
	}
}

// loadConfig reads the configuration file, if any, and applies flag
// overrides.
func loadConfig(opts options) (*config.Config, error) {
	cfg := config.Default()
	if opts.ConfigFile != "" {
		loaded, err := config.Load(opts.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if opts.BusKind != "" {
		cfg.Bus.Kind = opts.BusKind
	}
	if opts.Device != "" {
		cfg.Bus.Device = opts.Device
	}
	if opts.Trace != "" {
		cfg.Trace = opts.Trace
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.JSON {
		cfg.Log.Format = "json"
	}
	if opts.Addr != 0 || opts.Size != 0 {
		if opts.Addr > uint(bus.MaxAddr) || opts.Size > eeprom.MaxCapacity {
			return nil, fmt.Errorf("%w: -addr 0x%x -size %d out of range",
				pkg.ErrInvalidConfiguration, opts.Addr, opts.Size)
		}
		cfg.Devices = append(cfg.Devices, config.Device{
			Address: uint16(opts.Addr),
			Size:    uint32(opts.Size),
		})
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
