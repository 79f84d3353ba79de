package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ardnew/softeeprom/bus"
	"github.com/ardnew/softeeprom/bus/linux"
	"github.com/ardnew/softeeprom/bus/sim"
	"github.com/ardnew/softeeprom/bus/trace"
	"github.com/ardnew/softeeprom/config"
	"github.com/ardnew/softeeprom/eeprom"
	"github.com/ardnew/softeeprom/pkg"
)

// app is a driver attached to the configured bus.
type app struct {
	cfg     *config.Config
	out     io.Writer
	drv     *eeprom.Driver
	raw     bus.Transport // Transport without tracing
	bus     bus.Transport // Transport handed to the driver
	sim     *sim.Bus      // Set for the simulated bus
	closers []io.Closer
}

// newApp opens the configured bus and attaches the configured devices.
func newApp(cfg *config.Config, out io.Writer) (*app, error) {
	a := &app{
		cfg: cfg,
		out: out,
		drv: eeprom.NewDriver(cfg.DriverOptions()...),
	}

	switch cfg.BusKind() {
	case config.BusLinux:
		adapter, err := openAdapter(cfg.Bus.Device)
		if err != nil {
			return nil, err
		}
		a.raw = adapter
		a.closers = append(a.closers, adapter)
	default:
		a.sim = sim.New()
		a.raw = a.sim
	}

	a.bus = a.raw
	if cfg.Trace != "" {
		rec, err := trace.NewFileRecorder(cfg.Trace)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open trace: %w", err)
		}
		a.closers = append(a.closers, rec)
		a.bus = trace.New(a.raw, rec)
	}

	for _, d := range cfg.Devices {
		if _, err := a.attach(d.AttachConfig()); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// attach places a blank chip on the simulated bus when needed and attaches
// the device to the driver.
func (a *app) attach(ac eeprom.AttachConfig) (eeprom.Minor, error) {
	if a.sim != nil && a.sim.Chip(ac.Address) == nil && ac.Capacity > 0 && ac.Capacity <= eeprom.MaxCapacity {
		if err := a.sim.Attach(ac.Address, sim.NewChip(int(ac.Capacity))); err != nil {
			return 0, err
		}
	}
	minor, err := a.drv.Attach(a.bus, ac)
	if err != nil {
		return 0, fmt.Errorf("attach %s: %w", ac.Address, err)
	}
	return minor, nil
}

// Close detaches every device and releases the bus.
func (a *app) Close() error {
	errs := []error{a.drv.Close()}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// open resolves a node name ("eeprom0") or bare minor ("0") and opens a
// session on it.
func (a *app) open(name string) (*eeprom.Session, error) {
	minor, err := parseMinor(name)
	if err != nil {
		return nil, err
	}
	return a.drv.Open(minor)
}

func parseMinor(name string) (eeprom.Minor, error) {
	if n, err := strconv.ParseUint(name, 10, 32); err == nil {
		return eeprom.Minor(n), nil
	}
	minor, err := eeprom.ParseNodeName(name)
	if err != nil {
		return 0, fmt.Errorf("%w: bad node %q", errUsage, name)
	}
	return minor, nil
}

// parseInt accepts decimal, 0x hex and 0o octal.
func parseInt(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad number %q", errUsage, s)
	}
	return n, nil
}

// parseData decodes a write payload: hex when prefixed with 0x, text
// otherwise.
func parseData(s string) ([]byte, error) {
	if digits, ok := strings.CutPrefix(s, "0x"); ok {
		p, err := hex.DecodeString(digits)
		if err != nil {
			return nil, fmt.Errorf("%w: bad hex data: %v", errUsage, err)
		}
		return p, nil
	}
	return []byte(s), nil
}

// =============================================================================
// Commands
// =============================================================================

func (a *app) cmdList() error {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NODE\tADDRESS\tSIZE")
	for _, inst := range a.drv.Instances() {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", inst.Node(), inst.Address(), inst.Capacity())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if a.cfg.BusKind() != config.BusLinux {
		return nil
	}
	adapters, err := linux.ScanAdapters(linux.SysfsI2CDevPath)
	if err != nil {
		pkg.LogDebug(component, "adapter scan failed", "error", err)
		return nil
	}
	fmt.Fprintln(a.out)
	for _, ad := range adapters {
		fmt.Fprintf(a.out, "%s\t%s\n", ad.Path, ad.Name)
	}
	return nil
}

func (a *app) cmdRead(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 3 {
		return fmt.Errorf("%w: read <node> [offset] [length]", errUsage)
	}
	s, err := a.open(args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	var offset int64
	length := int(s.Instance().Capacity())
	if len(args) > 1 {
		if offset, err = parseInt(args[1]); err != nil {
			return err
		}
	}
	if len(args) > 2 {
		n, err := parseInt(args[2])
		if err != nil {
			return err
		}
		length = int(n)
	}

	if _, err := s.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	data, err := s.Read(ctx, length)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, hex.EncodeToString(data))
	return nil
}

func (a *app) cmdWrite(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: write <node> <offset> <data>", errUsage)
	}
	offset, err := parseInt(args[1])
	if err != nil {
		return err
	}
	data, err := parseData(args[2])
	if err != nil {
		return err
	}

	s, err := a.open(args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	n, err := s.Write(ctx, data)
	fmt.Fprintf(a.out, "wrote %d of %d bytes\n", n, len(data))
	return err
}

func (a *app) cmdDump(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: dump <node>", errUsage)
	}
	s, err := a.open(args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	data, err := s.Read(ctx, int(s.Instance().Capacity()))
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, hex.Dump(data))
	return nil
}

func cmdTrace(out io.Writer, args []string, session string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: trace <file>", errUsage)
	}
	r, err := trace.OpenFile(args[0], trace.Filter{Session: session})
	if err != nil {
		return err
	}
	defer r.Close()

	for {
		event, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, event)
	}
}
