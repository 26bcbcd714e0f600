// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package sharedstorage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Engine orchestrates the producer stream, resource admission, concurrent
// hashing/writing, tree assembly, and index commit — spec.md's Import
// Engine (module E), the hard core of this package.
type Engine struct {
	store    *Store
	provider Provider
	log      *slog.Logger
}

// EngineOption configures an Engine at construction.
type EngineOption func(*Engine)

// WithLogger overrides the engine's logger; the default is slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// NewEngine returns an Engine that commits imports into store, admitting
// file claims through provider.
func NewEngine(store *Store, provider Provider, opts ...EngineOption) *Engine {
	e := &Engine{store: store, provider: provider, log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// fileCompletion is the tuple a spawned per-file task reports back: either
// (parent, name, identifier) on success, or a non-nil err on failure. Every
// task sends exactly one fileCompletion, regardless of outcome, so the
// engine's in-flight counter always balances.
type fileCompletion struct {
	parent string
	name   string
	id     Identifier
	err    error
}

// Import consumes producer to completion (or abort) and, on success,
// commits a new index named name recording the directory tree it
// describes. It implements spec.md §4.E's five-step per-event protocol
// exactly: opportunistic non-blocking drain before each event, concurrent
// per-file hash-and-persist tasks admitted through the resource provider,
// and strict abort/drain semantics — every admitted handle is released
// exactly once, and on any abort path pending tasks are drained to
// completion (discarding their results) before the first-seen error
// surfaces.
func (e *Engine) Import(producer Producer, name string) error {
	runID := uuid.New()
	e.log.Info("[sharedstorage] import starting", "run", runID, "index", name)

	tree := NewDirectory()
	pending := make(chan fileCompletion, 64)
	inFlight := 0
	var firstErr error

	abort := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	apply := func(c fileCompletion) {
		if c.err != nil {
			abort(c.err)
			return
		}
		dir, err := tree.TraverseMut(c.parent, true)
		if err != nil {
			abort(err)
			return
		}
		if err := dir.InsertFile(c.name, c.id); err != nil {
			abort(err)
		}
	}

	drainNonBlocking := func() {
		for {
			select {
			case c := <-pending:
				inFlight--
				apply(c)
			default:
				return
			}
		}
	}

	spawn := func(handle *Claim, parent, fileName string, executable bool, data []byte) {
		inFlight++
		go func() {
			id := Compute(data, executable)
			err := persistBlob(e.store.base, id, data)
			e.provider.Release(handle)
			if err != nil {
				pending <- fileCompletion{err: err}
				return
			}
			pending <- fileCompletion{parent: parent, name: fileName, id: id}
		}()
	}

eventLoop:
	for firstErr == nil {
		drainNonBlocking()

		event, err := producer.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break eventLoop
			}
			abort(err)
			break eventLoop
		}

		switch event.Kind {
		case EventError:
			abort(fmt.Errorf("%w: %v", ErrImportStreamError, event.Err))
			break eventLoop

		case EventFileData:
			abort(ErrUnexpectedFileData)
			break eventLoop

		case EventDirectory:
			parentPath, dirName, err := splitRelativePath(event.DirPath)
			if err != nil {
				abort(err)
				break eventLoop
			}
			dir, err := tree.TraverseMut(parentPath, true)
			if err != nil {
				abort(err)
				break eventLoop
			}
			if err := dir.Mkdir(dirName); err != nil {
				abort(err)
				break eventLoop
			}

		case EventFile:
			var handle *Claim
			for {
				result := e.provider.Claim(event.Size)
				switch result.Outcome {
				case ClaimImpossible:
					abort(&ImportError{Kind: "ImpossibleFileClaim", Path: event.Name, Size: event.Size})
					break eventLoop
				case ClaimBusy:
					e.log.Warn("[sharedstorage] claim busy, waiting for a completion", "run", runID,
						"name", event.Name, "size", humanize.Bytes(event.Size))
					c := <-pending
					inFlight--
					apply(c)
					if firstErr != nil {
						// No handle was ever admitted for this event; there is
						// nothing to release. Bail out without retrying the claim.
						break eventLoop
					}
					continue
				case ClaimOK:
					handle = result.Claim
				}
				break
			}
			if firstErr != nil {
				break eventLoop
			}

			next, err := producer.Next()
			if err != nil {
				e.provider.Release(handle)
				if errors.Is(err, io.EOF) {
					abort(ErrUnexpectedEndOfContent)
				} else {
					abort(err)
				}
				break eventLoop
			}
			switch next.Kind {
			case EventFileData:
				spawn(handle, event.ParentPath, event.Name, event.Executable, next.Data)
			case EventError:
				e.provider.Release(handle)
				abort(fmt.Errorf("%w: %v", ErrImportStreamError, next.Err))
				break eventLoop
			default:
				e.provider.Release(handle)
				abort(ErrExpectedFileDataEvent)
				break eventLoop
			}
		}
	}

	// Drain every remaining task so none outlives this call, applying
	// completions only while no error has yet been recorded (once firstErr
	// is set, remaining results are discarded per the abort-path contract).
	for inFlight > 0 {
		c := <-pending
		inFlight--
		if firstErr == nil {
			apply(c)
		}
	}

	if firstErr != nil {
		e.log.Error("[sharedstorage] import aborted", "run", runID, "index", name, "error", firstErr)
		return firstErr
	}

	if err := e.store.register(name, tree); err != nil {
		e.log.Error("[sharedstorage] import commit failed", "run", runID, "index", name, "error", err)
		return err
	}

	e.log.Info("[sharedstorage] import committed", "run", runID, "index", name)
	return nil
}

// splitRelativePath splits a Directory event's path into its parent path
// (joined with "/", possibly empty for a root-level directory) and its
// final component name.
func splitRelativePath(path string) (parent, name string, err error) {
	comps, err := pathComponents(path)
	if err != nil {
		return "", "", err
	}
	if len(comps) == 0 {
		return "", "", &PathError{Kind: "UnexpectedRootDir", Path: path}
	}
	return strings.Join(comps[:len(comps)-1], "/"), comps[len(comps)-1], nil
}
