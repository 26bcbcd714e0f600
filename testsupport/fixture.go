// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package testsupport

import (
	"bytes"
	"errors"

	"github.com/vmihailenco/msgpack/v5"

	sharedstorage "github.com/strongdm/shared-storage"
)

// wireEvent is the on-disk shape of one ImportEvent, adapted from the
// teacher's EncodeMsgpack/DecodeMsgpack helpers in encoding.go. An error
// value can't round-trip through msgpack directly, so EventError events
// carry their message as a plain string.
type wireEvent struct {
	Kind       sharedstorage.EventKind
	DirPath    string
	ParentPath string
	Name       string
	Size       uint64
	Executable bool
	Data       []byte
	ErrMsg     string
}

// EncodeFixture serializes events to msgpack with sorted map keys, the way
// the teacher's EncodeMsgpack does, for deterministic golden fixture files.
func EncodeFixture(events []sharedstorage.ImportEvent) ([]byte, error) {
	wire := make([]wireEvent, len(events))
	for i, e := range events {
		w := wireEvent{
			Kind:       e.Kind,
			DirPath:    e.DirPath,
			ParentPath: e.ParentPath,
			Name:       e.Name,
			Size:       e.Size,
			Executable: e.Executable,
			Data:       e.Data,
		}
		if e.Err != nil {
			w.ErrMsg = e.Err.Error()
		}
		wire[i] = w
	}

	buf := &bytes.Buffer{}
	enc := msgpack.NewEncoder(buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(wire); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeFixture deserializes a byte stream produced by EncodeFixture.
func DecodeFixture(data []byte) ([]sharedstorage.ImportEvent, error) {
	var wire []wireEvent
	if err := msgpack.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	events := make([]sharedstorage.ImportEvent, len(wire))
	for i, w := range wire {
		e := sharedstorage.ImportEvent{
			Kind:       w.Kind,
			DirPath:    w.DirPath,
			ParentPath: w.ParentPath,
			Name:       w.Name,
			Size:       w.Size,
			Executable: w.Executable,
			Data:       w.Data,
		}
		if w.ErrMsg != "" {
			e.Err = errors.New(w.ErrMsg)
		}
		events[i] = e
	}
	return events, nil
}

// NewFixtureProducer replays a msgpack-encoded event stream previously
// written with EncodeFixture, mirroring the teacher's cxdb-msgpack-fixtures
// tool's role of replaying recorded wire data in tests.
func NewFixtureProducer(data []byte) (sharedstorage.Producer, error) {
	events, err := DecodeFixture(data)
	if err != nil {
		return nil, err
	}
	return &eventSliceProducer{events: events}, nil
}
