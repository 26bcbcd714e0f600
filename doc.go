// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package sharedstorage implements a content-addressable shared storage: a
// directory of data blobs keyed by SHA-256 digest, length, and executable
// bit, plus named indices that give those blobs human-meaningful path names.
//
// # Layout
//
//	BASE/
//	  data/<h0h1>/<h2h3>/<h4..>-<size>[x]   blob files
//	  indices/<name>                        committed index manifests
//	  indices/<name>.tmp                    in-progress manifest writes
//
// # Basic usage
//
//	store, err := sharedstorage.Open("/var/lib/myapp/storage")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	provider := sharedstorage.NewSimpleResourceProvider(64, 256<<20)
//	engine := sharedstorage.NewEngine(store, provider)
//	if err := engine.Import(events, "my-index"); err != nil {
//	    log.Fatal(err)
//	}
//
// The hard core of this package is the streaming import pipeline
// (Engine.Import): it consumes an event-driven description of a directory
// tree, concurrently hashes and persists file payloads under a bounded
// resource budget, and atomically commits a durable index naming them. The
// producer of that event stream and the concrete resource-budget policy are
// both pluggable collaborators specified only at their interface — see
// ImportEvent and Provider.
package sharedstorage
