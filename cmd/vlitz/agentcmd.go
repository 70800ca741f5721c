// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vlitzdev/vlitz/pkg/engine"
	"github.com/vlitzdev/vlitz/pkg/memory"
)

func agentParams(addrStr string, typeStr string, valueStr string) (engine.AgentParams, error) {
	var params engine.AgentParams
	if addrStr != "" {
		addr, err := memory.ParseAddress(addrStr)
		if err != nil {
			return params, err
		}
		params.Address = addr
	}
	mtype, ok := memory.ParseType(typeStr)
	if !ok {
		return params, fmt.Errorf("unknown memory type %q", typeStr)
	}
	params.Type = mtype
	if valueStr != "" {
		value, err := memory.ParseValue(valueStr, mtype)
		if err != nil {
			return params, err
		}
		params.Value = value
	}
	return params, nil
}

func makeAgentCmd() *cobra.Command {
	var addrStr, typeStr, valueStr string
	cmd := &cobra.Command{
		Use:       "agent <" + strings.Join(engine.AgentKinds, "|") + ">",
		Short:     "Print an instrumentation agent script",
		Args:      cobra.ExactArgs(1),
		ValidArgs: engine.AgentKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := agentParams(addrStr, typeStr, valueStr)
			if err != nil {
				return err
			}
			script, err := engine.RenderAgent(args[0], params)
			if err != nil {
				return err
			}
			fmt.Print(script)
			return nil
		},
	}
	cmd.Flags().StringVar(&addrStr, "address", "", "target address (hex or decimal)")
	cmd.Flags().StringVar(&typeStr, "type", "int", "memory type")
	cmd.Flags().StringVar(&valueStr, "value", "", "value for lock agents")
	return cmd
}
