// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// compressionTag identifies the algorithm a stored source document
// was compressed with. Tags are persisted in the documents table —
// changing the values orphans existing rows.
type compressionTag uint8

const (
	// compressionNone stores the document bytes as-is. Used when
	// probing shows the content does not compress worth the CPU.
	compressionNone compressionTag = 0

	// compressionLZ4 is LZ4 block compression: modest ratios,
	// near-free decode. Chosen for content that compresses a little
	// but not enough to justify zstd.
	compressionLZ4 compressionTag = 1

	// compressionZstd is zstd at the default level. Chosen for
	// text-like content (HTML forms, email bodies, JSON), which is
	// what the inbox overwhelmingly contains.
	compressionZstd compressionTag = 2
)

func (tag compressionTag) String() string {
	switch tag {
	case compressionNone:
		return "none"
	case compressionLZ4:
		return "lz4"
	case compressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", tag)
	}
}

// zstdEncoder and zstdDecoder are reused across calls. Both are safe
// for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("queue: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("queue: zstd decoder initialization failed: " + err.Error())
	}
}

// errIncompressible is returned when compressed output is not smaller
// than the input. The caller falls back to compressionNone.
var errIncompressible = fmt.Errorf("data is incompressible")

// compressDocument compresses source document content with the
// algorithm selectCompression picks for it. Incompressible content is
// returned unchanged under compressionNone.
func compressDocument(data []byte, contentType string) ([]byte, compressionTag, error) {
	tag := selectCompression(data, contentType)

	var compressed []byte
	var err error
	switch tag {
	case compressionNone:
		return data, compressionNone, nil
	case compressionLZ4:
		compressed, err = compressLZ4(data)
	case compressionZstd:
		compressed, err = compressZstd(data)
	}
	if err != nil {
		if err == errIncompressible {
			return data, compressionNone, nil
		}
		return nil, 0, err
	}
	return compressed, tag, nil
}

// decompressDocument reverses compressDocument. The uncompressedSize
// recorded at write time must match the output length exactly — a
// mismatch means the row is corrupt and returns an error.
func decompressDocument(data []byte, tag compressionTag, uncompressedSize int) ([]byte, error) {
	switch tag {
	case compressionNone:
		if len(data) != uncompressedSize {
			return nil, fmt.Errorf("uncompressed document: size %d does not match expected %d",
				len(data), uncompressedSize)
		}
		return data, nil

	case compressionLZ4:
		destination := make([]byte, uncompressedSize)
		read, err := lz4.UncompressBlock(data, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != uncompressedSize {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, uncompressedSize)
		}
		return destination, nil

	case compressionZstd:
		result, err := zstdDecoder.DecodeAll(data, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(result) != uncompressedSize {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), uncompressedSize)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(data))
	destination := make([]byte, bound)

	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}

	// CompressBlock returns 0 when it determines the data is
	// incompressible. Also reject output that grew.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}

	return destination[:written], nil
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

// selectCompression picks an algorithm for the content. Known
// text-like content types go straight to zstd. Anything else is
// probed: a zstd ratio of at least 1.5x selects zstd, at least 1.1x
// selects LZ4, below that the content is stored uncompressed.
func selectCompression(data []byte, contentType string) compressionTag {
	switch contentType {
	case "text/plain", "text/html", "text/csv", "text/xml",
		"application/json", "application/xml",
		"message/rfc822":
		return compressionZstd
	}

	if len(data) == 0 {
		return compressionNone
	}

	compressed := zstdEncoder.EncodeAll(data, nil)
	ratio := float64(len(data)) / float64(len(compressed))

	switch {
	case ratio >= 1.5:
		return compressionZstd
	case ratio >= 1.1:
		return compressionLZ4
	default:
		return compressionNone
	}
}
