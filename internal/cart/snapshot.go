package cart

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const snapshotFormat = 1

// ErrCorruptSnapshot marks a snapshot that cannot be trusted.
var ErrCorruptSnapshot = errors.New("corrupt cart snapshot")

// SnapshotLine is one persisted cart record.
type SnapshotLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Variant   string    `json:"variant"`
	Quantity  int       `json:"quantity"`
}

// Snapshot is a decoded, verified cart snapshot.
type Snapshot struct {
	Version uint64
	Lines   []SnapshotLine
}

type snapshotBody struct {
	Format  int            `json:"format"`
	Version uint64         `json:"version"`
	Lines   []SnapshotLine `json:"lines"`
}

type snapshotEnvelope struct {
	snapshotBody
	Checksum string `json:"checksum"`
}

// EncodeSnapshot serializes lines in order with a version and checksum.
func EncodeSnapshot(version uint64, lines []SnapshotLine) ([]byte, error) {
	if lines == nil {
		lines = []SnapshotLine{}
	}
	body := snapshotBody{Format: snapshotFormat, Version: version, Lines: lines}
	sum, err := checksum(body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(snapshotEnvelope{snapshotBody: body, Checksum: sum})
}

// DecodeSnapshot parses and verifies a snapshot. Any structural problem,
// checksum mismatch or invalid line returns ErrCorruptSnapshot.
func DecodeSnapshot(raw []byte) (Snapshot, error) {
	var env snapshotEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if env.Format != snapshotFormat {
		return Snapshot{}, fmt.Errorf("%w: unsupported format %d", ErrCorruptSnapshot, env.Format)
	}
	if env.Lines == nil {
		return Snapshot{}, fmt.Errorf("%w: missing lines", ErrCorruptSnapshot)
	}
	want, err := checksum(env.snapshotBody)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if env.Checksum != want {
		return Snapshot{}, fmt.Errorf("%w: checksum mismatch", ErrCorruptSnapshot)
	}

	seen := make(map[LineKey]struct{}, len(env.Lines))
	for _, line := range env.Lines {
		if line.ProductID == uuid.Nil || line.Quantity <= 0 {
			return Snapshot{}, fmt.Errorf("%w: invalid line", ErrCorruptSnapshot)
		}
		key := LineKey{ProductID: line.ProductID, Variant: line.Variant}
		if _, dup := seen[key]; dup {
			return Snapshot{}, fmt.Errorf("%w: duplicate line", ErrCorruptSnapshot)
		}
		seen[key] = struct{}{}
	}
	return Snapshot{Version: env.Version, Lines: env.Lines}, nil
}

func checksum(body snapshotBody) (string, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}
