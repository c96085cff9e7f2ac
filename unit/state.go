package unit

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// State blobs carry a magic header and format version so stored presets stay
// loadable across releases.
const (
	stateMagic   = "PHST"
	stateVersion = uint32(1)
)

// MarshalState captures every parameter's normalized value as an opaque
// blob suitable for preset storage.
func (s *ParamSet) MarshalState() []byte {
	var buf bytes.Buffer
	buf.WriteString(stateMagic)
	binary.Write(&buf, binary.LittleEndian, stateVersion)

	params := s.All()
	binary.Write(&buf, binary.LittleEndian, uint32(len(params)))
	for _, p := range params {
		binary.Write(&buf, binary.LittleEndian, p.ID)
		binary.Write(&buf, binary.LittleEndian, p.Normalized())
	}
	return buf.Bytes()
}

// UnmarshalState restores parameter values from a blob produced by
// MarshalState. Unknown parameter IDs are skipped so older blobs load into
// newer units. Restored values flow through SetNormalized, advancing the
// revision and notifying the watcher.
func (s *ParamSet) UnmarshalState(data []byte) error {
	r := bytes.NewReader(data)

	header := make([]byte, len(stateMagic))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("read state header: %w", err)
	}
	if string(header) != stateMagic {
		return fmt.Errorf("invalid state format")
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("read state version: %w", err)
	}
	if version > stateVersion {
		return fmt.Errorf("state version %d is newer than supported version %d", version, stateVersion)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("read parameter count: %w", err)
	}

	for i := uint32(0); i < count; i++ {
		var id uint32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return fmt.Errorf("read parameter id: %w", err)
		}
		var value float64
		if err := binary.Read(r, binary.LittleEndian, &value); err != nil {
			return fmt.Errorf("read parameter value: %w", err)
		}
		if s.Get(id) == nil {
			continue
		}
		if err := s.SetNormalized(id, value); err != nil {
			return err
		}
	}
	return nil
}
