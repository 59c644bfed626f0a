// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// ContentHash is a 32-byte BLAKE3 digest of a record file's raw
// bytes. Ingest uses it to recognize files it has seen before, so an
// inbox rescan never queues the same submission twice.
type ContentHash [32]byte

// recordDomainKey is the BLAKE3 key for record content hashing.
// Changing it invalidates every stored hash, which would re-ingest
// the whole inbox on the next scan. The byte values are the ASCII
// encoding of the domain name, zero-padded to 32 bytes, so the key is
// recognizable in hex dumps.
var recordDomainKey = [32]byte{
	'd', 'o', 'c', 's', 'i', 'f', 't', '.', 'r', 'e', 'c', 'o', 'r', 'd',
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// HashContent computes the record-domain BLAKE3 keyed hash of raw
// file content. Hashes are computed on the bytes as read from disk,
// before any parsing, so formatting-only differences produce
// different hashes and genuinely identical files collide.
func HashContent(data []byte) ContentHash {
	// NewKeyed requires exactly 32 bytes, which the fixed-size key
	// guarantees, so the error path is unreachable.
	hasher, err := blake3.NewKeyed(recordDomainKey[:])
	if err != nil {
		panic("queue: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var hash ContentHash
	copy(hash[:], hasher.Sum(nil))
	return hash
}

// String returns the hex encoding, the form used in logs.
func (h ContentHash) String() string {
	return hex.EncodeToString(h[:])
}
