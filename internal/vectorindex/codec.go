package vectorindex

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"math"
	"time"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// Serialised layout, all integers little-endian:
//
//	magic   [4]byte "SCVI"
//	version uint16
//	hdrLen  uint32
//	header  JSON (hdrLen bytes)
//	vectors count*dims float32
//	crc     uint32 IEEE checksum of everything before it
const (
	formatVersion uint16 = 1
	prefixLen            = 4 + 2 + 4
	trailerLen           = 4
)

var magic = [4]byte{'S', 'C', 'V', 'I'}

type header struct {
	DocumentID  string         `json:"document_id"`
	Model       string         `json:"model"`
	ContentHash string         `json:"content_hash,omitempty"`
	Dimensions  int            `json:"dimensions"`
	Count       int            `json:"count"`
	CreatedAt   time.Time      `json:"created_at"`
	Chunks      []domain.Chunk `json:"chunks"`
}

// Marshal serialises idx into a self-checking binary blob.
func Marshal(idx *domain.VectorIndex) ([]byte, error) {
	if idx == nil {
		return nil, fmt.Errorf("%w: nil index", domain.ErrInvalidInput)
	}
	if len(idx.Chunks) != len(idx.Vectors) {
		return nil, fmt.Errorf("%w: %d chunks but %d vectors", domain.ErrInvalidInput, len(idx.Chunks), len(idx.Vectors))
	}

	hdr, err := json.Marshal(header{
		DocumentID:  idx.DocumentID,
		Model:       idx.Model,
		ContentHash: idx.ContentHash,
		Dimensions:  idx.Dimensions,
		Count:       len(idx.Vectors),
		CreatedAt:   idx.CreatedAt,
		Chunks:      idx.Chunks,
	})
	if err != nil {
		return nil, fmt.Errorf("encode index header: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(prefixLen + len(hdr) + len(idx.Vectors)*idx.Dimensions*4 + trailerLen)
	buf.Write(magic[:])
	_ = binary.Write(&buf, binary.LittleEndian, formatVersion)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(hdr)))
	buf.Write(hdr)

	word := make([]byte, 4)
	for i, v := range idx.Vectors {
		if len(v) != idx.Dimensions {
			return nil, fmt.Errorf("%w: vector %d has %d values, expected %d",
				domain.ErrDimensionMismatch, i, len(v), idx.Dimensions)
		}
		for _, f := range v {
			binary.LittleEndian.PutUint32(word, math.Float32bits(f))
			buf.Write(word)
		}
	}

	binary.LittleEndian.PutUint32(word, crc32.ChecksumIEEE(buf.Bytes()))
	buf.Write(word)

	return buf.Bytes(), nil
}

// Unmarshal decodes a blob written by Marshal.
// Any structural or checksum failure is reported as domain.ErrCacheCorruption.
func Unmarshal(data []byte) (*domain.VectorIndex, error) {
	if len(data) < prefixLen+trailerLen {
		return nil, corrupt("blob too short: %d bytes", len(data))
	}

	body, trailer := data[:len(data)-trailerLen], data[len(data)-trailerLen:]
	if got, want := crc32.ChecksumIEEE(body), binary.LittleEndian.Uint32(trailer); got != want {
		return nil, corrupt("checksum mismatch")
	}
	if !bytes.Equal(body[:4], magic[:]) {
		return nil, corrupt("bad magic")
	}
	if v := binary.LittleEndian.Uint16(body[4:6]); v != formatVersion {
		return nil, corrupt("unsupported version %d", v)
	}

	hdrLen := int(binary.LittleEndian.Uint32(body[6:10]))
	if hdrLen > len(body)-prefixLen {
		return nil, corrupt("header length %d exceeds blob", hdrLen)
	}

	var hdr header
	if err := json.Unmarshal(body[prefixLen:prefixLen+hdrLen], &hdr); err != nil {
		return nil, corrupt("decode header: %v", err)
	}
	if hdr.Count != len(hdr.Chunks) || hdr.Count < 0 || hdr.Dimensions < 0 {
		return nil, corrupt("header counts inconsistent")
	}

	payload := body[prefixLen+hdrLen:]
	if len(payload) != hdr.Count*hdr.Dimensions*4 {
		return nil, corrupt("vector payload is %d bytes, expected %d", len(payload), hdr.Count*hdr.Dimensions*4)
	}

	vectors := make([][]float32, hdr.Count)
	for i := range vectors {
		v := make([]float32, hdr.Dimensions)
		for j := range v {
			off := (i*hdr.Dimensions + j) * 4
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(payload[off:]))
		}
		vectors[i] = v
	}

	return &domain.VectorIndex{
		DocumentID:  hdr.DocumentID,
		Model:       hdr.Model,
		ContentHash: hdr.ContentHash,
		Dimensions:  hdr.Dimensions,
		Chunks:      hdr.Chunks,
		Vectors:     vectors,
		CreatedAt:   hdr.CreatedAt,
	}, nil
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrCacheCorruption, fmt.Sprintf(format, args...))
}
