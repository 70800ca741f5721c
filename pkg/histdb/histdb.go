// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package histdb persists console history and named library snapshots in a
// bbolt database.
package histdb

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/vlitzdev/vlitz/pkg/vzerr"
	bolt "go.etcd.io/bbolt"
)

const (
	bucketCmd  = "cmd"
	bucketLibs = "libs"
)

const openTimeout = time.Second

var ErrNoSnapshot = vzerr.New(vzerr.KindIO, "no library snapshot with that name")

type Cmd struct {
	Seq  int
	Text string
}

type DB struct {
	db *bolt.DB
}

// Open opens (creating if needed) the database at path. Another vlitz
// holding the file makes Open fail after a short timeout.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, vzerr.Errorf(vzerr.KindIO, "creating history dir: %v", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, vzerr.Errorf(vzerr.KindIO, "opening history db %s: %v", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketCmd, bucketLibs} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, vzerr.Errorf(vzerr.KindIO, "initializing history db: %v", err)
	}
	return &DB{db: db}, nil
}

func (h *DB) Close() error {
	return h.db.Close()
}

func (h *DB) Path() string {
	return h.db.Path()
}

// AddCmd appends a command and returns its sequence number.
func (h *DB) AddCmd(text string) (int, error) {
	var seq uint64
	err := h.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCmd))
		var err error
		seq, err = b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(marshalSeq(seq), []byte(text))
	})
	return int(seq), err
}

// RecentCmds returns up to n of the newest commands, oldest first.
func (h *DB) RecentCmds(n int) ([]Cmd, error) {
	var rtn []Cmd
	err := h.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketCmd)).Cursor()
		for k, v := c.Last(); k != nil && len(rtn) < n; k, v = c.Prev() {
			rtn = append(rtn, Cmd{Seq: int(unmarshalSeq(k)), Text: string(v)})
		}
		return nil
	})
	for i, j := 0, len(rtn)-1; i < j; i, j = i+1, j-1 {
		rtn[i], rtn[j] = rtn[j], rtn[i]
	}
	return rtn, err
}

// Trim deletes all but the newest keep commands.
func (h *DB) Trim(keep int) (int, error) {
	removed := 0
	err := h.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketCmd)).Cursor()
		seen := 0
		for k, _ := c.Last(); k != nil; k, _ = c.Prev() {
			seen++
			if seen <= keep {
				continue
			}
			if err := c.Delete(); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

// StoreLib saves a library snapshot under name, replacing any previous one.
func (h *DB) StoreLib(name string, data []byte) error {
	return h.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketLibs)).Put([]byte(name), data)
	})
}

func (h *DB) LoadLib(name string) ([]byte, error) {
	var rtn []byte
	err := h.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketLibs)).Get([]byte(name))
		if v == nil {
			return vzerr.With(ErrNoSnapshot, "%q", name)
		}
		// v is only valid inside the transaction
		rtn = append([]byte{}, v...)
		return nil
	})
	return rtn, err
}

func (h *DB) LibNames() ([]string, error) {
	var rtn []string
	err := h.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketLibs)).ForEach(func(k, _ []byte) error {
			rtn = append(rtn, string(k))
			return nil
		})
	})
	return rtn, err
}

func IsNoSnapshot(err error) bool {
	return errors.Is(err, ErrNoSnapshot)
}

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func unmarshalSeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
