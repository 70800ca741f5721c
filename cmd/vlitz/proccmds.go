// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"os/user"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vlitzdev/vlitz/pkg/engine"
	"github.com/vlitzdev/vlitz/pkg/engine/procengine"
	"github.com/vlitzdev/vlitz/pkg/vzerr"
)

// filterOwnProcesses keeps the processes owned by username.
func filterOwnProcesses(procs []engine.ProcessInfo, username string) []engine.ProcessInfo {
	var rtn []engine.ProcessInfo
	for _, p := range procs {
		if p.User == username {
			rtn = append(rtn, p)
		}
	}
	return rtn
}

func makePsCmd() *cobra.Command {
	var applications, installed bool
	cmd := &cobra.Command{
		Use:   "ps",
		Short: "List processes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if installed {
				return vzerr.With(vzerr.ErrUnsupported, "listing installed applications on the local device")
			}
			procs, err := procengine.MakeManager().EnumerateProcesses(cmd.Context())
			if err != nil {
				return err
			}
			if applications {
				cur, err := user.Current()
				if err != nil {
					return fmt.Errorf("cannot determine current user: %w", err)
				}
				procs = filterOwnProcesses(procs, cur.Username)
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PID\tNAME\tUSER")
			for _, p := range procs {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", p.Pid, p.Name, p.User)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVarP(&applications, "applications", "a", false, "only show processes owned by the current user")
	cmd.Flags().BoolVarP(&installed, "installed", "i", false, "only show installed applications")
	return cmd
}

func makeDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := procengine.MakeManager().EnumerateDevices(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tNAME")
			for _, d := range devices {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Id, d.Type, d.Name)
			}
			return tw.Flush()
		},
	}
}

func makeKillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kill <name|pid>",
		Short: "Kill a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := procengine.MakeManager()
			proc, err := mgr.ResolveTarget(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := mgr.KillProcess(cmd.Context(), proc.Pid); err != nil {
				return err
			}
			fmt.Printf("Killed %s (pid %d)\n", proc.Name, proc.Pid)
			return nil
		},
	}
}
