// Package main implements a tool for controlling a Roland S-330.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/subcommands"

	"s330ctl/config"
	"s330ctl/debug"
	"s330ctl/midiport"
	"s330ctl/s330"
)

var (
	midiIn   = flag.String("midi_in", "", "Name of input MIDI device")
	midiOut  = flag.String("midi_out", "", "Name of output MIDI device")
	deviceID = flag.Int("device_id", -1, "ID of S-330 device to control")
	driver   = flag.String("driver", "", "MIDI driver: portmidi or rtmidi")
	debugLog = flag.Bool("debug", false, "Write a wire trace to the debug log")
)

// loadConfig merges command-line flags over the config file.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("ignoring unreadable config: %v", err)
		cfg = config.Default()
	}
	if *midiIn != "" {
		cfg.InPort = *midiIn
	}
	if *midiOut != "" {
		cfg.OutPort = *midiOut
	}
	if *deviceID >= 0 {
		cfg.DeviceID = *deviceID
	}
	if *driver != "" {
		cfg.Driver = config.Driver(*driver)
	}
	if *debugLog {
		cfg.Debug = true
	}
	return cfg
}

func openTransport(cfg *config.Config) (s330.Transport, error) {
	switch cfg.Driver {
	case config.DriverRTMidi:
		return midiport.OpenRTMidi(cfg.InPort, cfg.OutPort)
	case config.DriverPortMidi, "":
		return midiport.OpenPortMidi(cfg.InPort, cfg.OutPort)
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}

// withClient opens the transport and client around fn.
func withClient(fn func(ctx context.Context, c *s330.Client, args []string) error) func(context.Context, []string) error {
	return func(ctx context.Context, args []string) error {
		cfg := loadConfig()
		if cfg.Debug {
			if err := debug.Enable(); err != nil {
				log.Printf("debug log unavailable: %v", err)
			}
			defer debug.Disable()
		}
		tr, err := openTransport(cfg)
		if err != nil {
			return fmt.Errorf("opening MIDI transport: %w", err)
		}
		defer tr.Close()
		client, err := s330.NewClient(tr, s330.DeviceID(cfg.DeviceID))
		if err != nil {
			return err
		}
		defer client.Close()
		if cfg.RequestTimeoutMS > 0 {
			client.SetRequestTimeout(time.Duration(cfg.RequestTimeoutMS) * time.Millisecond)
		}
		return fn(ctx, client, args)
	}
}

type cmd struct {
	name, synopsis string
	minArgs        int
	run            func(ctx context.Context, args []string) error
}

func (c *cmd) Name() string           { return c.name }
func (c *cmd) Synopsis() string       { return c.synopsis }
func (*cmd) SetFlags(f *flag.FlagSet) {}
func (c *cmd) Usage() string {
	return fmt.Sprintf("%s [...]:\n%s\n", c.Name(), c.Synopsis())
}

func (c *cmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if len(f.Args()) < c.minArgs {
		log.Printf("parameter not provided for command %q", c.name)
		return subcommands.ExitFailure
	}
	if err := c.run(ctx, f.Args()); err != nil {
		log.Printf("%s: %v", c.name, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func parseKind(name string) (s330.RecordKind, error) {
	switch name {
	case "patch", "patches":
		return s330.KindPatch, nil
	case "tone", "tones":
		return s330.KindTone, nil
	default:
		return 0, fmt.Errorf("unknown collection %q", name)
	}
}

func loadBank(ctx context.Context, c *s330.Client, kind s330.RecordKind, bank int, force bool) error {
	return c.LoadBank(ctx, kind, bank, s330.LoadOptions{
		Force: force,
		OnItem: func(index int, rec s330.Record) {
			switch r := rec.(type) {
			case *s330.Patch:
				fmt.Printf("  %s %2d: %s\n", kind, index, r.Name)
			case *s330.Tone:
				fmt.Printf("  %s %2d: %s\n", kind, index, r.Name)
			}
		},
		OnProgress: func(done, total int) {
			fmt.Printf("bank %d: %d/%d\n", bank, done, total)
		},
		OnClamp: func(index int, clamps []s330.ClampEvent) {
			for _, ev := range clamps {
				log.Printf("%s %d: corrupt field %s", kind, index, ev)
			}
		},
	})
}

// loadKindBank is the shared implementation of load-patches/load-tones.
func loadKindBank(kind s330.RecordKind) func(context.Context, []string) error {
	return withClient(func(ctx context.Context, c *s330.Client, args []string) error {
		bank, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("bad bank number %q", args[0])
		}
		force := len(args) > 1 && args[1] == "force"
		return loadBank(ctx, c, kind, bank, force)
	})
}

// showRecord loads the record's bank if needed and pretty-prints it.
func showRecord(kind s330.RecordKind) func(context.Context, []string) error {
	return withClient(func(ctx context.Context, c *s330.Client, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("bad %s number %q", kind, args[0])
		}
		if err := loadBank(ctx, c, kind, index/s330.BankSize, false); err != nil {
			return err
		}
		var rec s330.Record
		var ok bool
		if kind == s330.KindPatch {
			rec, ok = c.Patch(index)
		} else {
			rec, ok = c.Tone(index)
		}
		if !ok {
			return fmt.Errorf("%s %d not in cache", kind, index)
		}
		fmt.Print(spew.Sdump(rec))
		return nil
	})
}

var commands = []subcommands.Command{
	&cmd{
		name:     "list-ports",
		synopsis: "List available MIDI ports",
		run: func(_ context.Context, _ []string) error {
			ins, outs, err := midiport.Ports()
			if err != nil {
				return err
			}
			fmt.Println("inputs:")
			for _, name := range ins {
				fmt.Printf("  %s\n", name)
			}
			fmt.Println("outputs:")
			for _, name := range outs {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	},
	&cmd{
		name:     "load-patches",
		synopsis: "Load one bank of patches from the sampler (bank [force])",
		minArgs:  1,
		run:      loadKindBank(s330.KindPatch),
	},
	&cmd{
		name:     "load-tones",
		synopsis: "Load one bank of tones from the sampler (bank [force])",
		minArgs:  1,
		run:      loadKindBank(s330.KindTone),
	},
	&cmd{
		name:     "show-patch",
		synopsis: "Fetch and print a patch",
		minArgs:  1,
		run:      showRecord(s330.KindPatch),
	},
	&cmd{
		name:     "show-tone",
		synopsis: "Fetch and print a tone",
		minArgs:  1,
		run:      showRecord(s330.KindTone),
	},
	&cmd{
		name:     "set",
		synopsis: "Set a front-panel register (" + registerNames() + ")",
		minArgs:  2,
		run: withClient(func(_ context.Context, c *s330.Client, args []string) error {
			reg := s330.RegisterByName(args[0])
			if reg == nil {
				return fmt.Errorf("unknown register %q, have: %s", args[0], registerNames())
			}
			val, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("bad value %q", args[1])
			}
			return c.SetRegister(reg, val)
		}),
	},
	&cmd{
		name:     "monitor",
		synopsis: "Print parameter-change notifications until interrupted",
		run: withClient(func(ctx context.Context, c *s330.Client, _ []string) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()
			cancel := c.OnParameterChange(func(ev s330.ParameterChange) {
				fmt.Printf("%s %d offset %d = % x\n", ev.Area, ev.Index, ev.Offset, ev.Value)
			})
			defer cancel()
			fmt.Println("monitoring, ctrl-c to stop")
			<-ctx.Done()
			return nil
		}),
	},
}

func registerNames() string {
	names := make([]string, len(s330.Registers))
	for i, r := range s330.Registers {
		names[i] = r.Name
	}
	return strings.Join(names, ", ")
}

func main() {
	flag.Parse()
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	for _, cmd := range commands {
		subcommands.Register(cmd, "")
	}
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
