package persistence

import "errors"

const (
	// MagicNumber identifies rule-set containers (ASCII: "RSY1").
	MagicNumber = 0x52535931
	// Version is the current container format version.
	Version = 0x00010000

	// Extension is the file extension of stored containers.
	Extension = ".rset"
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	ErrCorrupt        = errors.New("corrupt rule-set payload")

	// ErrRowCountMismatch is returned by Encode when members were computed
	// over datasets of different sizes.
	ErrRowCountMismatch = errors.New("members cover different row universes")
)

// FileHeader is the 32-byte header at the start of every container.
type FileHeader struct {
	Magic       uint32 // 0x52535931 ("RSY1")
	Version     uint32 // Container format version
	Compression uint8  // CompressionType of the payload
	Padding1    [3]byte
	Members     uint32 // Number of rules in the set
	RawSize     uint32 // Uncompressed payload size
	StoredSize  uint32 // Payload size on disk
	Checksum    uint32 // CRC32 of the stored payload
	Reserved    [4]byte
}

// headerSize is the encoded size of FileHeader.
const headerSize = 32
