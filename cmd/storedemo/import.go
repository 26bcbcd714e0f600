// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	sharedstorage "github.com/strongdm/shared-storage"
	"github.com/strongdm/shared-storage/testsupport"
)

func newImportCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "import <source-dir> <index-name>",
		Short: "Import a directory tree into a named index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceDir, indexName := args[0], args[1]

			store, err := sharedstorage.Open(cfg.StorageRoot)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}

			provider := sharedstorage.NewSimpleResourceProvider(cfg.MaxClaims, cfg.MaxSpace)
			engine := sharedstorage.NewEngine(store, provider)

			producer, err := testsupport.WalkDir(sourceDir)
			if err != nil {
				return fmt.Errorf("walk %q: %w", sourceDir, err)
			}

			if err := engine.Import(producer, indexName); err != nil {
				return fmt.Errorf("import: %w", err)
			}

			color.New(color.FgGreen).Printf("imported %s as %q\n", sourceDir, indexName)
			return nil
		},
	}
}
