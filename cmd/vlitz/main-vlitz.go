// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vlitzdev/vlitz/pkg/config"
	"github.com/vlitzdev/vlitz/pkg/serverbase"
	"github.com/vlitzdev/vlitz/pkg/vzlog"
)

// VlitzVersion is the current version of vlitz
var VlitzVersion = "v0.0.0"

// VlitzBuildTime is the build timestamp of vlitz
var VlitzBuildTime = ""

// cliOpts holds the root flags. Target flags are resolved in the order
// positional, attach-name, attach-id, attach-pid, file.
type cliOpts struct {
	Usb        bool
	Remote     bool
	Host       string
	Device     string
	File       string
	AttachName string
	AttachId   string
	AttachPid  int32
	Load       string
	Demo       bool

	PageSize   int
	Verbose    bool
	NoColor    bool
	ConfigPath string
}

func loadSettings(cmd *cobra.Command, opts *cliOpts) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.ConfigPath != "" {
		cfg = config.DefaultConfig()
		var fileCfg *config.Config
		fileCfg, err = config.LoadConfigFile(opts.ConfigPath)
		cfg.Merge(fileCfg)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("page-size") {
		if opts.PageSize <= 0 {
			return nil, fmt.Errorf("--page-size must be positive, got %d", opts.PageSize)
		}
		cfg.PageSize = opts.PageSize
	}
	if opts.NoColor {
		cfg.Color = config.ColorNever
	}
	err = vzlog.Init(vzlog.Opts{LogFile: cfg.LogPath(), Level: cfg.LogLevel, Verbose: opts.Verbose})
	if err != nil {
		return nil, err
	}
	log := vzlog.Logger("cli")
	if cfg.Source != "" {
		log.Infof("loaded config from %s", cfg.Source)
	}
	log.Debugf("vlitz %s starting: pagesize=%d home=%s", VlitzVersion, cfg.PageSize, cfg.HomeDir())
	return cfg, nil
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-signalChan:
			vzlog.Logger("cli").Infof("received signal: %v", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(signalChan)
	}()
	return ctx, cancel
}

func main() {
	serverbase.VlitzVersion = VlitzVersion
	serverbase.VlitzBuildTime = VlitzBuildTime
	defer vzlog.Close()

	opts := &cliOpts{}
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:   "vlitz [TARGET]",
		Short: "vlitz is an interactive console for inspecting running processes",
		Long: `vlitz attaches to a process (by name or pid) and opens an interactive console
for enumerating modules, exports, classes and memory ranges, reading and
writing typed memory, and collecting results into a library.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = loadSettings(cmd, opts)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd.Context(), cfg, opts, args)
		},
	}

	flags := rootCmd.Flags()
	flags.BoolVarP(&opts.Usb, "usb", "U", false, "connect to a USB device")
	flags.BoolVarP(&opts.Remote, "remote", "R", false, "connect to a remote instrumentation server")
	flags.StringVarP(&opts.Host, "host", "H", "", "remote server host (requires --remote)")
	flags.StringVarP(&opts.Device, "device", "D", "", "connect to the device with this id")
	flags.StringVarP(&opts.File, "file", "f", "", "spawn this program")
	flags.StringVarP(&opts.AttachName, "attach-name", "n", "", "attach to the process with this name")
	flags.StringVarP(&opts.AttachId, "attach-id", "N", "", "attach to the process with this identifier")
	flags.Int32VarP(&opts.AttachPid, "attach-pid", "p", 0, "attach to the process with this pid")
	flags.StringVarP(&opts.Load, "load", "l", "", "run a vlitz script after attaching")
	flags.BoolVar(&opts.Demo, "demo", false, "attach to the built-in demo target instead of a process")

	pflags := rootCmd.PersistentFlags()
	pflags.IntVar(&opts.PageSize, "page-size", config.DefaultPageSize, "log items per page")
	pflags.BoolVarP(&opts.Verbose, "verbose", "v", false, "mirror debug logging to stderr")
	pflags.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pflags.StringVar(&opts.ConfigPath, "config", "", "config file (default: search for vlitz.json/vlitz.yaml)")

	rootCmd.AddCommand(makePsCmd())
	rootCmd.AddCommand(makeDevicesCmd())
	rootCmd.AddCommand(makeKillCmd())
	rootCmd.AddCommand(makeServeCmd(&cfg, opts))
	rootCmd.AddCommand(makeAgentCmd())

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of vlitz",
		Run: func(cmd *cobra.Command, args []string) {
			if VlitzBuildTime != "" {
				fmt.Printf("%s+%s\n", VlitzVersion, VlitzBuildTime)
			} else {
				fmt.Printf("%s+dev\n", VlitzVersion)
			}
		},
	}
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		vzlog.Close()
		os.Exit(1)
	}
}
