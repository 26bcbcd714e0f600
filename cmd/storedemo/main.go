// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Command storedemo is a small reference CLI exercising the sharedstorage
// package: importing a directory tree, listing committed indices, and
// printing a file's content by path. It plays the role the teacher's
// cmd/cxdb-fstree-fixtures tool played for fstree — a demonstration and
// test harness, not part of the core library.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := loadConfig()

	root := &cobra.Command{
		Use:   "storedemo",
		Short: "Demonstrates the sharedstorage content-addressable store",
	}
	root.PersistentFlags().StringVar(&cfg.StorageRoot, "root", cfg.StorageRoot, "storage root directory")
	root.PersistentFlags().Uint64Var(&cfg.MaxClaims, "max-claims", cfg.MaxClaims, "concurrent claim cap")
	root.PersistentFlags().Uint64Var(&cfg.MaxSpace, "max-space", cfg.MaxSpace, "soft in-flight byte cap")

	root.AddCommand(newImportCmd(&cfg))
	root.AddCommand(newIndicesCmd(&cfg))
	root.AddCommand(newCatCmd(&cfg))
	return root
}
