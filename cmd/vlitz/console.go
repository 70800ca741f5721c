// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/vlitzdev/vlitz/pkg/config"
	"github.com/vlitzdev/vlitz/pkg/engine"
	"github.com/vlitzdev/vlitz/pkg/engine/memengine"
	"github.com/vlitzdev/vlitz/pkg/engine/procengine"
	"github.com/vlitzdev/vlitz/pkg/executor"
	"github.com/vlitzdev/vlitz/pkg/histdb"
	"github.com/vlitzdev/vlitz/pkg/repl"
	"github.com/vlitzdev/vlitz/pkg/vzerr"
	"github.com/vlitzdev/vlitz/pkg/vzlog"
)

// resolveTarget picks the attach target from the positional argument and
// the attach flags. An empty result means start detached.
func resolveTarget(opts *cliOpts, args []string) (string, error) {
	if opts.Host != "" && !opts.Remote {
		return "", fmt.Errorf("--host requires --remote")
	}
	if opts.Usb || opts.Remote {
		return "", vzerr.With(vzerr.ErrUnsupported, "only the local device is available")
	}
	if opts.Device != "" && opts.Device != procengine.LocalDeviceId {
		return "", vzerr.With(vzerr.ErrUnsupported, "device %q not found (only %q is available)", opts.Device, procengine.LocalDeviceId)
	}
	switch {
	case len(args) > 0:
		return args[0], nil
	case opts.AttachName != "":
		return opts.AttachName, nil
	case opts.AttachId != "":
		return opts.AttachId, nil
	case opts.AttachPid != 0:
		return strconv.FormatInt(int64(opts.AttachPid), 10), nil
	case opts.File != "":
		return "", vzerr.With(vzerr.ErrUnsupported, "spawning %q", opts.File)
	}
	return "", nil
}

func openEngine(ctx context.Context, opts *cliOpts, args []string) (engine.Engine, error) {
	if opts.Demo {
		return memengine.MakeDemo(), nil
	}
	target, err := resolveTarget(opts, args)
	if err != nil || target == "" {
		return nil, err
	}
	proc, err := procengine.MakeManager().ResolveTarget(ctx, target)
	if err != nil {
		return nil, err
	}
	eng, err := procengine.Attach(ctx, proc)
	if err != nil {
		return nil, err
	}
	return eng, nil
}

// openHistory returns nil when the history database cannot be opened; the
// console still works, it just forgets.
func openHistory(cfg *config.Config) *histdb.DB {
	db, err := histdb.Open(cfg.HistoryPath())
	if err != nil {
		vzlog.Logger("cli").Warnf("history disabled: %v", err)
		fmt.Fprintf(os.Stderr, "warning: history disabled: %v\n", err)
		return nil
	}
	if removed, err := db.Trim(cfg.HistorySize); err != nil {
		vzlog.Logger("histdb").Warnf("trimming history: %v", err)
	} else if removed > 0 {
		vzlog.Logger("histdb").Debugf("trimmed %d history entries", removed)
	}
	return db
}

func makeExecutor(cfg *config.Config, eng engine.Engine, db *histdb.DB) *executor.Executor {
	opts := executor.Opts{
		ItemsPerPage: cfg.PageSize,
		Engine:       eng,
		HistorySize:  cfg.HistorySize,
		PromptName:   cfg.Prompt,
	}
	if db != nil {
		opts.History = db
	}
	return executor.MakeExecutor(opts)
}

func runConsole(ctx context.Context, cfg *config.Config, opts *cliOpts, args []string) error {
	eng, err := openEngine(ctx, opts, args)
	if err != nil {
		return err
	}
	if eng != nil {
		defer eng.Close()
		fmt.Printf("Attached to %s (%s engine)\n", eng.Target(), eng.Name())
	}
	db := openHistory(cfg)
	if db != nil {
		defer db.Close()
	}
	exec := makeExecutor(cfg, eng, db)
	vzlog.Logger("cli").WithField("session", exec.SessionId()).Infof("console started")

	var startup []string
	if opts.Load != "" {
		startup = append(startup, "run "+opts.Load)
	}
	r := repl.MakeRepl(exec, repl.Opts{
		Color:   cfg.UseColor(repl.IsTerminal(os.Stdout)),
		Banner:  true,
		Startup: startup,
	})
	return r.Run(ctx)
}
