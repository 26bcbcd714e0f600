// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"path"

	"github.com/spf13/cobra"

	sharedstorage "github.com/strongdm/shared-storage"
)

func newCatCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <index-name> <path>",
		Short: "Print the content of a file at path within a named index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			indexName, filePath := args[0], args[1]

			store, err := sharedstorage.Open(cfg.StorageRoot)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}

			tree := store.Tree(indexName)
			if tree == nil {
				return fmt.Errorf("no such index %q", indexName)
			}

			parent, name := path.Dir(filePath), path.Base(filePath)
			if parent == "." {
				parent = ""
			}
			dir, err := tree.Traverse(parent)
			if err != nil {
				return fmt.Errorf("traverse %q: %w", filePath, err)
			}
			entry, ok := dir.Entries()[name]
			if !ok {
				return fmt.Errorf("no such entry %q", filePath)
			}
			fileEntry, ok := entry.(sharedstorage.FileEntry)
			if !ok {
				return fmt.Errorf("%q is a directory, not a file", filePath)
			}

			data, err := store.ReadBlob(fileEntry.Identifier)
			if err != nil {
				return fmt.Errorf("read blob: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
