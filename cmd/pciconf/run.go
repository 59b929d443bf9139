package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/set-io/pciconf"
	"github.com/set-io/pciconf/directio"
	"github.com/set-io/pciconf/ports"
)

const usage = `pciconf inspects PCI configuration space through the legacy direct-access
port mechanisms, bypassing the operating system. It needs root.

Usage:

    pciconf [flags] scan
    pciconf [flags] read <bus:dev.fn> <offset> [length]
    pciconf [flags] write <bus:dev.fn> <offset> <byte>...

"scan" is the default. Offsets and bytes accept 0x prefixes.

Flags:

`

func execute(args []string) error {
	fs := flag.NewFlagSet("pciconf", flag.ExitOnError)
	debug := fs.Bool("debug", false, "trace mechanism detection and sanity checking")
	backend := fs.String("backend", "iopl", "port backend: 'iopl' or 'devport'")
	method := fs.String("method", "auto", "access method: 'auto', 'conf1' or 'conf2'")
	yes := fs.Bool("yes", false, "write to hardware without asking")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if *showVersion {
		fmt.Printf("pciconf %s\ngo: %s\n", version, runtime.Version())
		return nil
	}

	a, err := openAccess(*backend, *method, *debug)
	if err != nil {
		return err
	}
	defer a.Close()

	rest := fs.Args()
	cmd := "scan"
	if len(rest) > 0 {
		cmd, rest = rest[0], rest[1:]
	}
	switch cmd {
	case "scan":
		return runScan(a)
	case "read":
		return runRead(a, rest)
	case "write":
		return runWrite(a, rest, *yes)
	}
	fs.Usage()
	return fmt.Errorf("unknown command %q", cmd)
}

func openAccess(backend, method string, debug bool) (*pciconf.Access, error) {
	var ops ports.Ops
	var err error
	switch backend {
	case "iopl":
		ops, err = ports.IOPL()
	case "devport":
		ops, err = ports.DevPort()
	default:
		err = fmt.Errorf("unknown backend %q", backend)
	}
	if err != nil {
		return nil, err
	}

	methods := directio.Methods(ops)
	switch method {
	case "auto":
	case "conf1":
		methods = methods[:1]
	case "conf2":
		methods = methods[1:]
	default:
		return nil, fmt.Errorf("unknown method %q", method)
	}

	a := pciconf.New(methods...)
	if debug {
		a.Debug = log.Printf
	}
	if err := a.Open(); err != nil {
		return nil, err
	}
	return a, nil
}

func runScan(a *pciconf.Access) error {
	devs, err := a.Scan()
	if err != nil {
		return err
	}
	for _, d := range devs {
		fmt.Println(d)
	}
	return nil
}

func parseTarget(args []string) (pciconf.Addr, int, []string, error) {
	if len(args) < 2 {
		return pciconf.Addr{}, 0, nil, errors.New("need <bus:dev.fn> and <offset>")
	}
	d, err := pciconf.ParseAddr(args[0])
	if err != nil {
		return pciconf.Addr{}, 0, nil, err
	}
	pos, err := strconv.ParseUint(args[1], 0, 16)
	if err != nil || pos >= pciconf.ConfigSpaceSize {
		return pciconf.Addr{}, 0, nil, fmt.Errorf("bad offset %q", args[1])
	}
	return d, int(pos), args[2:], nil
}

func runRead(a *pciconf.Access, args []string) error {
	d, pos, rest, err := parseTarget(args)
	if err != nil {
		return err
	}
	length := 4
	if len(rest) > 0 {
		n, err := strconv.ParseUint(rest[0], 0, 16)
		if err != nil || n == 0 || pos+int(n) > pciconf.ConfigSpaceSize {
			return fmt.Errorf("bad length %q", rest[0])
		}
		length = int(n)
	}

	buf := make([]byte, length)
	if err := a.Read(d, pos, buf); err != nil {
		return fmt.Errorf("%s: %w", d, err)
	}
	for i, b := range buf {
		if i > 0 && (pos+i)%16 == 0 {
			fmt.Println()
		} else if i > 0 {
			fmt.Print(" ")
		}
		fmt.Printf("%02x", b)
	}
	fmt.Println()
	return nil
}

func runWrite(a *pciconf.Access, args []string, yes bool) error {
	d, pos, rest, err := parseTarget(args)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return errors.New("need at least one byte to write")
	}
	buf := make([]byte, len(rest))
	for i, s := range rest {
		v, err := strconv.ParseUint(s, 0, 8)
		if err != nil {
			return fmt.Errorf("bad byte %q", s)
		}
		buf[i] = uint8(v)
	}

	if !yes {
		prompt := fmt.Sprintf("write % x to %s at %#02x?", buf, d, pos)
		if !confirm(prompt) {
			return errors.New("write aborted")
		}
	}
	if err := a.Write(d, pos, buf); err != nil {
		return fmt.Errorf("%s: %w", d, err)
	}
	return nil
}

// confirm asks on the terminal; with no terminal the answer is no, so
// scripted runs must pass -yes explicitly.
func confirm(prompt string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
