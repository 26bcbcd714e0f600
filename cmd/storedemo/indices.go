// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	sharedstorage "github.com/strongdm/shared-storage"
)

func newIndicesCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "indices",
		Short: "List committed index names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sharedstorage.Open(cfg.StorageRoot)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			for _, name := range store.Indices() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
