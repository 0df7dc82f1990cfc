package types

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Digest returns the SHA-256 hex digest of source bytes. It is the
// content-address used for cache keys and as an input to entity IDs.
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// EntityID derives the stable identifier of an entity. It is a pure
// function of (path, kind, name, startByte, digest): identical inputs
// produce the identical ID on every run and platform.
func EntityID(path string, kind EntityKind, name string, startByte int, digest string) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(startByte)))
	h.Write([]byte{0})
	h.Write([]byte(digest))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// UnresolvedID derives a placeholder target ID for a textual name that
// does not resolve to an entity in the current file. The graph store
// re-links these by name.
func UnresolvedID(path, name string) string {
	h := sha256.New()
	h.Write([]byte("unresolved"))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write([]byte(name))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// RelationshipID derives the stable identifier of a relationship edge.
// Emitting the same (from, to, type, startLine) twice yields the same ID
// so duplicates collapse during deduplication.
func RelationshipID(fromID, toID, relType string, startLine int) string {
	d := xxhash.New()
	d.WriteString(fromID)
	d.Write([]byte{0})
	d.WriteString(toID)
	d.Write([]byte{0})
	d.WriteString(relType)
	d.Write([]byte{0})
	d.WriteString(strconv.Itoa(startLine))
	return strconv.FormatUint(d.Sum64(), 16)
}

// ChunkHash is the content hash used for chunk deduplication. It is a
// function only of the chunk bytes.
func ChunkHash(content string) uint64 {
	return xxhash.Sum64String(content)
}
