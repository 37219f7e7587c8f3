package processor

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/elk-audio/sushi-go/pkg/param"
)

// SaveStateBytes is the []byte-returning convenience form of SaveState,
// used by Processor implementations whose State() method has nothing
// else to add.
func SaveStateBytes(registry *param.Registry, currentProgram int32, bypassed bool, custom []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := SaveState(&buf, registry, currentProgram, bypassed, custom); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadStateBytes is the []byte-accepting convenience form of LoadState.
func LoadStateBytes(data []byte, registry *param.Registry) error {
	_, err := LoadState(bytes.NewReader(data), registry)
	return err
}

// stateMagic and stateVersion identify the binary state blob format:
// magic bytes, a version, then program/bypass/parameter data.
const (
	stateMagic   = "SUSHIGO"
	stateVersion = uint32(1)
)

// SaveState writes program, bypass, parameter values and an optional
// opaque blob produced by custom to a writer. Used by Base-embedding
// processors that want the common serialization instead of a bespoke
// format.
func SaveState(w io.Writer, registry *param.Registry, currentProgram int32, bypassed bool, custom []byte) error {
	if _, err := w.Write([]byte(stateMagic)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, stateVersion); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, currentProgram); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, bypassed); err != nil {
		return err
	}

	params := registry.All()
	if err := binary.Write(w, binary.LittleEndian, int32(len(params))); err != nil {
		return err
	}
	for _, p := range params {
		if err := binary.Write(w, binary.LittleEndian, p.ID); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, p.GetValue()); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, int32(len(custom))); err != nil {
		return err
	}
	if len(custom) > 0 {
		if _, err := w.Write(custom); err != nil {
			return err
		}
	}
	return nil
}

// LoadedState is the decoded result of LoadState.
type LoadedState struct {
	CurrentProgram int32
	Bypassed       bool
	Custom         []byte
}

// LoadState reads a blob written by SaveState, applying parameter values
// directly to registry and returning the rest for the caller to apply.
// Unknown parameter ids are ignored for forward compatibility, matching
// the teacher's manager.Load.
func LoadState(r io.Reader, registry *param.Registry) (LoadedState, error) {
	var out LoadedState

	header := make([]byte, len(stateMagic))
	if _, err := io.ReadFull(r, header); err != nil {
		return out, err
	}
	if string(header) != stateMagic {
		return out, fmt.Errorf("processor state: invalid header")
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return out, err
	}
	if version > stateVersion {
		return out, fmt.Errorf("processor state: version %d newer than supported %d", version, stateVersion)
	}

	if err := binary.Read(r, binary.LittleEndian, &out.CurrentProgram); err != nil {
		return out, err
	}
	if err := binary.Read(r, binary.LittleEndian, &out.Bypassed); err != nil {
		return out, err
	}

	var paramCount int32
	if err := binary.Read(r, binary.LittleEndian, &paramCount); err != nil {
		return out, err
	}
	for i := int32(0); i < paramCount; i++ {
		var id uint32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return out, err
		}
		var value float64
		if err := binary.Read(r, binary.LittleEndian, &value); err != nil {
			return out, err
		}
		if p := registry.Get(id); p != nil {
			p.SetValue(value)
		}
	}

	var customLen int32
	if err := binary.Read(r, binary.LittleEndian, &customLen); err != nil {
		return out, err
	}
	if customLen > 0 {
		out.Custom = make([]byte, customLen)
		if _, err := io.ReadFull(r, out.Custom); err != nil {
			return out, err
		}
	}
	return out, nil
}
