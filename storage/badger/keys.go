package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/corpus/core"
)

// Key prefixes for different data types
const (
	nodeRecordPrefix   = "nodrec"
	nodeSourcePrefix   = "nodsrc"
	vectorRecordPrefix = "vecrec"
	manifestRecordKey  = "idxman"
)

// sourceSep terminates the source component of a composite key. Sources are
// filenames and URLs, which never contain a NUL byte.
const sourceSep = byte(0)

// makeNodeKey generates a key for a node record by ID.
func makeNodeKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", nodeRecordPrefix, id))
}

// makeSourceKey generates a composite key for the source index.
// Format: prefix:source\x00id
func makeSourceKey(source string, id core.ID) []byte {
	prefix := nodeSourcePrefix + ":"
	totalSize := len(prefix) + len(source) + 1 + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, prefix)
	offset += copy(buf[offset:], source)
	buf[offset] = sourceSep
	offset++
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialSourceKey generates a partial key for listing nodes of a source.
// Format: prefix:source\x00
func makePartialSourceKey(source string) []byte {
	prefix := nodeSourcePrefix + ":"
	buf := make([]byte, len(prefix)+len(source)+1)
	offset := copy(buf, prefix)
	offset += copy(buf[offset:], source)
	buf[offset] = sourceSep
	return buf
}

// splitSourceKey extracts the source and node ID from a source index key.
// Returns ok=false for keys that don't match the expected layout.
func splitSourceKey(key []byte) (source string, id core.ID, ok bool) {
	prefix := nodeSourcePrefix + ":"
	if len(key) < len(prefix)+1+8 {
		return "", 0, false
	}
	rest := key[len(prefix):]
	sep := len(rest) - 9
	if rest[sep] != sourceSep {
		return "", 0, false
	}
	source = string(rest[:sep])
	id = core.ID(binary.BigEndian.Uint64(rest[sep+1:]))
	return source, id, true
}

// makeVectorKey generates a key for a vector entry by node ID.
func makeVectorKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", vectorRecordPrefix, id))
}

// parseIDKey extracts the numeric ID from a "prefix:id" key.
func parseIDKey(key []byte, prefix string) (core.ID, error) {
	var id uint64
	if _, err := fmt.Sscanf(string(key), prefix+":%d", &id); err != nil {
		return 0, err
	}
	return core.ID(id), nil
}
