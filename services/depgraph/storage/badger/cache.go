// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// DefaultTTL is how long cached reports live.
const DefaultTTL = time.Hour

// keyPrefix namespaces report entries. Bump the version when the report
// layout changes so stale entries are never decoded.
const keyPrefix = "depgraph/report/v1/"

// ResultCache stores encoded reports under content digests.
//
// # Thread Safety
//
// Safe for concurrent use.
type ResultCache struct {
	db  *DB
	ttl time.Duration
}

// NewResultCache returns a cache backed by db. ttl <= 0 means DefaultTTL.
func NewResultCache(db *DB, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{db: db, ttl: ttl}
}

// TTL returns the entry lifetime.
func (c *ResultCache) TTL() time.Duration { return c.ttl }

// Get returns the value stored under key. A missing or expired entry
// returns ok == false and a nil error.
func (c *ResultCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var out []byte
	err := c.db.View(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return out, true, nil
}

// Put stores value under key with the cache TTL.
func (c *ResultCache) Put(ctx context.Context, key string, value []byte) error {
	err := c.db.Update(ctx, func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(keyPrefix+key), value).WithTTL(c.ttl))
	})
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Purge removes every cached report.
func (c *ResultCache) Purge(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.db.DropPrefix([]byte(keyPrefix))
}

// Key hashes the output of each writer into a hex SHA-256 digest. Parts
// are digested separately, so moving bytes between parts changes the key.
func Key(parts ...func(io.Writer) error) (string, error) {
	h := sha256.New()
	for i, part := range parts {
		sub := sha256.New()
		if err := part(sub); err != nil {
			return "", fmt.Errorf("hashing key part %d: %w", i, err)
		}
		h.Write(sub.Sum(nil))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
