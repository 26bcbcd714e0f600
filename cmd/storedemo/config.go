// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// config captures the demo CLI's runtime configuration. Values are sourced
// from environment variables so they can be injected locally via a .env
// file, the same pattern gfbonny-cxdb/gateway/internal/config uses.
type config struct {
	StorageRoot string
	MaxClaims   uint64
	MaxSpace    uint64
}

const (
	defaultStorageRoot = "./storage"
	defaultMaxClaims   = 8
	defaultMaxSpace    = 256 << 20 // 256 MiB
)

func loadConfig() config {
	_ = godotenv.Load(".env", "../.env", "../../.env")

	return config{
		StorageRoot: firstNonEmpty(os.Getenv("STOREDEMO_ROOT"), defaultStorageRoot),
		MaxClaims:   firstNonEmptyUint(os.Getenv("STOREDEMO_MAX_CLAIMS"), defaultMaxClaims),
		MaxSpace:    firstNonEmptyUint(os.Getenv("STOREDEMO_MAX_SPACE"), defaultMaxSpace),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstNonEmptyUint(s string, fallback uint64) uint64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
