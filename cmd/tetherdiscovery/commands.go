package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli"

	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery"
	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/netif"
)

var rangeFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "prefix",
		Usage: "candidate address prefix, e.g. 172.20.10.",
	},
	cli.IntFlag{
		Name:  "start",
		Usage: "first host number (inclusive)",
	},
	cli.IntFlag{
		Name:  "end",
		Usage: "last host number (exclusive)",
	},
	cli.StringFlag{
		Name:  "cidr",
		Usage: "probe every host of an IPv4 network instead, e.g. 192.168.42.128/28",
	},
	cli.BoolFlag{
		Name:  "derive",
		Usage: "derive candidates from the bridge's address and netmask",
	},
}

func usbCommand(s *runState) cli.Command {
	return cli.Command{
		Name:  "usb",
		Usage: "report whether a USB cable is attached",
		Action: func(c *cli.Context) error {
			d, err := s.discovery()
			if err != nil {
				return err
			}
			return s.print(d.IsUsbConnected())
		},
	}
}

func tetherCommand(s *runState) cli.Command {
	return cli.Command{
		Name:  "tether",
		Usage: "report whether a tethering bridge is up",
		Action: func(c *cli.Context) error {
			d, err := s.discovery()
			if err != nil {
				return err
			}
			return s.print(d.IsConnectionTethered())
		},
	}
}

func readyCommand(s *runState) cli.Command {
	return cli.Command{
		Name:  "ready",
		Usage: "report whether cable and bridge are both present",
		Action: func(c *cli.Context) error {
			d, err := s.discovery()
			if err != nil {
				return err
			}
			return s.print(d.IsDeviceReady())
		},
	}
}

func waitCommand(s *runState) cli.Command {
	return cli.Command{
		Name:  "wait",
		Usage: "wait until the device is ready",
		Flags: []cli.Flag{
			cli.DurationFlag{
				Name:  "interval",
				Usage: "time between checks",
			},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("interval") {
				s.config.Tether.PollInterval.Duration = c.Duration("interval")
			}
			d, err := s.discovery()
			if err != nil {
				return err
			}
			return s.print(d.WaitReady(s.ctx))
		},
	}
}

func guessCommand(s *runState) cli.Command {
	flags := []cli.Flag{
		cli.StringFlag{
			Name:  "server",
			Usage: "substring expected in the device's Server header",
		},
		cli.IntFlag{
			Name:  "port",
			Usage: "port of the device's HTTP service",
		},
		cli.StringFlag{
			Name:  "path",
			Usage: "path requested from every candidate",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Usage: "limit for the whole run",
		},
		cli.BoolFlag{
			Name:  "last-listed",
			Usage: "stop as soon as the last candidate answers negatively",
		},
		cli.BoolFlag{
			Name:  "identify",
			Usage: "look up hostname, MAC and vendor of the device found",
		},
	}
	return cli.Command{
		Name:      "guess",
		Usage:     "probe the tethering subnet for the device's HTTP service",
		ArgsUsage: " ",
		Flags:     append(flags, rangeFlags...),
		Action: func(c *cli.Context) error {
			if err := applyGuessFlags(c, &s.config); err != nil {
				return err
			}
			d, err := s.discovery()
			if err != nil {
				return err
			}
			p := s.config.Probe
			tdLog.WithField("server", p.Server).WithField("port", p.Port).Debug("starting discovery")
			return s.print(d.HTTPAddressGuessing(s.ctx, p.Server, p.Port, p.Path))
		},
	}
}

func interfacesCommand(s *runState) cli.Command {
	return cli.Command{
		Name:  "interfaces",
		Usage: "list network interface entries",
		Action: func(c *cli.Context) error {
			w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tFAMILY\tADDRESS\tNETMASK\tBROADCAST\tFLAGS")
			for _, ifc := range netif.ListInterfaces() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					ifc.Name, ifc.Family, dash(ifc.IPAddress), dash(ifc.Netmask), dash(ifc.BroadcastAddress), flagString(ifc))
			}
			s.ok = true
			return w.Flush()
		},
	}
}

func candidatesCommand(s *runState) cli.Command {
	return cli.Command{
		Name:  "candidates",
		Usage: "print the addresses guess would probe",
		Flags: rangeFlags,
		Action: func(c *cli.Context) error {
			if err := applyRangeFlags(c, &s.config); err != nil {
				return err
			}
			d, err := s.discovery()
			if err != nil {
				return err
			}
			for _, addr := range d.Candidates() {
				fmt.Fprintln(s.out, addr)
			}
			s.ok = true
			return nil
		},
	}
}

// discovery builds a Discovery from the effective configuration.
func (s *runState) discovery() (*tetherdiscovery.Discovery, error) {
	opts, err := s.config.Options()
	if err != nil {
		return nil, err
	}
	if path := s.config.Identify.OUIDatabase; path != "" {
		if err := tetherdiscovery.SetVendorDatabase(path); err != nil {
			tdLog.WithError(err).Warn("vendor lookups disabled")
		}
	}
	d := tetherdiscovery.New(opts)
	d.Metrics = s.metrics
	return d, nil
}

func (s *runState) print(res tetherdiscovery.Result) error {
	s.ok = res.Status
	data := res.JSON()
	if data == nil {
		return fmt.Errorf("cannot encode result %s", res.Tag)
	}
	_, err := fmt.Fprintln(s.out, string(data))
	return err
}

// applyGuessFlags overrides configuration values with flags given on the
// command line.
func applyGuessFlags(c *cli.Context, cfg *tetherdiscovery.Config) error {
	if c.IsSet("server") {
		cfg.Probe.Server = c.String("server")
	}
	if c.IsSet("port") {
		cfg.Probe.Port = c.Int("port")
	}
	if c.IsSet("path") {
		cfg.Probe.Path = c.String("path")
	}
	if c.IsSet("timeout") {
		cfg.Probe.Timeout.Duration = c.Duration("timeout")
	}
	if c.Bool("last-listed") {
		cfg.Probe.Exhaustion = tetherdiscovery.ExhaustionLastListed
	}
	if c.Bool("identify") {
		cfg.Identify.Enabled = true
	}
	return applyRangeFlags(c, cfg)
}

func applyRangeFlags(c *cli.Context, cfg *tetherdiscovery.Config) error {
	if c.IsSet("prefix") {
		cfg.Range.Prefix = c.String("prefix")
	}
	if c.IsSet("start") {
		cfg.Range.Start = c.Int("start")
	}
	if c.IsSet("end") {
		cfg.Range.End = c.Int("end")
	}
	if c.IsSet("cidr") {
		cfg.Range.CIDR = c.String("cidr")
	}
	if c.Bool("derive") {
		cfg.Range.DeriveFromBridge = true
	}
	return cfg.Validate()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func flagString(ifc netif.Interface) string {
	var out string
	add := func(set bool, name string) {
		if !set {
			return
		}
		if out != "" {
			out += ","
		}
		out += name
	}
	add(ifc.IsUp, "up")
	add(ifc.IsRunning, "running")
	add(ifc.IsLoopback, "loopback")
	add(ifc.IsBroadcastSupported, "broadcast")
	add(ifc.IsMulticastSupported, "multicast")
	return dash(out)
}
