// cmd/wxbridge/validate.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ahunter-dev/fsweatherbridge/config"
)

func newValidateConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config",
		Short: "Load and validate the configuration file without starting the engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfigPath()
			if err != nil {
				return err
			}

			cfg, err := config.Load(path)
			if err != nil {
				color.Red("failed to parse %s: %v", path, err)
				return err
			}

			el := config.Validate(cfg)
			if el.HaveErrors() {
				el.PrintErrors(nil)
				return fmt.Errorf("config: %s failed validation", path)
			}

			color.Green("%s is valid", path)
			return nil
		},
	}
}
