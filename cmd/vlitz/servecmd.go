// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vlitzdev/vlitz/pkg/config"
	"github.com/vlitzdev/vlitz/pkg/serverbase"
	"github.com/vlitzdev/vlitz/pkg/vzlog"
	"github.com/vlitzdev/vlitz/pkg/web"
)

func makeServeCmd(cfg **config.Config, opts *cliOpts) *cobra.Command {
	var listenAddr string
	var allowCORS bool
	cmd := &cobra.Command{
		Use:   "serve [TARGET]",
		Short: "Serve a vlitz session over HTTP and websocket",
		Long: `Serve a vlitz session over HTTP. The console page is served at /, commands
can be sent to /api/exec or over the /ws websocket. Only one server may run
per vlitz home directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			if listenAddr != "" {
				c.ListenAddr = listenAddr
			}
			return runServe(c, opts, args, allowCORS)
		},
	}
	cmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (default from config, "+config.DefaultListenAddr+")")
	cmd.Flags().BoolVar(&allowCORS, "cors", false, "allow cross-origin requests")
	cmd.Flags().BoolVar(&opts.Demo, "demo", false, "serve the built-in demo target")
	cmd.Flags().StringVarP(&opts.AttachName, "attach-name", "n", "", "attach to the process with this name")
	cmd.Flags().Int32VarP(&opts.AttachPid, "attach-pid", "p", 0, "attach to the process with this pid")
	return cmd
}

func runServe(cfg *config.Config, opts *cliOpts, args []string, allowCORS bool) error {
	ctx, cancel := signalContext()
	defer cancel()
	log := vzlog.Logger("web")

	if err := serverbase.EnsureHomeDir(cfg.Home); err != nil {
		return fmt.Errorf("cannot create vlitz home directory (%s): %w", cfg.HomeDir(), err)
	}
	lock, err := serverbase.AcquireServerLock(cfg.Home)
	if err != nil {
		return fmt.Errorf("error acquiring vlitz lock (another vlitz server is likely running): %w", err)
	}
	defer lock.Close()

	eng, err := openEngine(ctx, opts, args)
	if err != nil {
		return err
	}
	if eng != nil {
		defer eng.Close()
	}
	db := openHistory(cfg)
	if db != nil {
		defer db.Close()
	}
	server := web.MakeServer(makeExecutor(cfg, eng, db))
	server.AllowCORS = allowCORS
	listener, err := web.MakeTCPListener("vlitz", cfg.ListenAddr)
	if err != nil {
		return err
	}
	fmt.Printf("vlitz %s serving on http://%s\n", serverbase.VlitzVersion, listener.Addr())
	err = server.Run(ctx, listener)
	log.Infof("server shutdown complete")
	return err
}
