package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"voxeledit.ai/internal/sim/voxel"
)

// EncodeOccupancy run-length encodes which cells of c are filled, in
// Chunk.All order, as base64(uvarint run lengths). Runs alternate between
// empty and filled and always start with an empty run, possibly of length 0.
func EncodeOccupancy(c *voxel.Chunk) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	filled := false
	run := uint64(0)
	for _, v := range c.All() {
		if v.Filled == filled {
			run++
			continue
		}
		n := binary.PutUvarint(tmp[:], run)
		buf.Write(tmp[:n])
		filled = v.Filled
		run = 1
	}
	n := binary.PutUvarint(tmp[:], run)
	buf.Write(tmp[:n])

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeOccupancy expands an EncodeOccupancy string; the runs must cover
// exactly cells entries.
func DecodeOccupancy(b64 string, cells int) ([]bool, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	out := make([]bool, 0, cells)
	filled := false
	for i := 0; i < len(raw); {
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if run > uint64(cells-len(out)) {
			return nil, fmt.Errorf("runs exceed %d cells", cells)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, filled)
		}
		filled = !filled
	}
	if len(out) != cells {
		return nil, fmt.Errorf("runs cover %d of %d cells", len(out), cells)
	}
	return out, nil
}
