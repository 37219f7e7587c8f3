// Package session persists and restores the full engine state document
// of spec.md §6: the track/processor graph, transport settings, and the
// MIDI connection table, encoded as YAML the same way pkg/config loads
// its document (gopkg.in/yaml.v3, carried from doismellburning/samoyed).
package session

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/elk-audio/sushi-go/pkg/controller"
	"github.com/elk-audio/sushi-go/pkg/mididispatch"
	"github.com/elk-audio/sushi-go/pkg/transport"
)

// TransportState is the persistable subset of pkg/transport's fields:
// enough to resume playback at the same tempo and meter, but not the
// running sample clock, which always restarts at zero on load.
type TransportState struct {
	Tempo               float64 `yaml:"tempo"`
	TimeSignatureNum    int32   `yaml:"time_signature_num"`
	TimeSignatureDenom  int32   `yaml:"time_signature_denom"`
	PlayingMode         int32   `yaml:"playing_mode"`
	SyncMode            int32   `yaml:"sync_mode"`
}

// Document is the full session state: graph, transport, and the MIDI
// connection table. It round-trips through Save/Load.
type Document struct {
	Graph     controller.GraphSnapshot    `yaml:"graph"`
	Transport TransportState              `yaml:"transport"`
	MIDIIn    []mididispatch.InputConnection  `yaml:"midi_in"`
	MIDIOut   []mididispatch.OutputConnection `yaml:"midi_out"`
}

// Capture builds a Document from the live Controller, Transport, and
// MIDI dispatcher. It is a non-RT operation, same restriction as
// Controller.SaveGraph (Processor.State may allocate).
func Capture(ctrl *controller.Controller, transportState TransportState, midi *mididispatch.Dispatcher) (Document, error) {
	graph, err := ctrl.SaveGraph()
	if err != nil {
		return Document{}, fmt.Errorf("session: capturing graph: %w", err)
	}
	doc := Document{
		Graph:     graph,
		Transport: transportState,
	}
	if midi != nil {
		doc.MIDIIn = midi.Connections()
		doc.MIDIOut = midi.OutputConnections()
	}
	return doc, nil
}

// Save YAML-encodes doc and writes it to path.
func Save(doc Document, path string) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("session: encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("session: writing %s: %w", path, err)
	}
	return nil
}

// Load reads and YAML-decodes a Document from path.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("session: reading %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("session: parsing %s: %w", path, err)
	}
	return doc, nil
}

// Restore replays doc's graph onto ctrl via RestoreGraph, then
// reapplies transport settings and the MIDI connection table. It does
// not touch the engine's realtime enable/disable state beyond what
// RestoreGraph itself does.
func Restore(doc Document, ctrl *controller.Controller, newProcessor controller.ProcessorFactory, midi *mididispatch.Dispatcher) error {
	if err := ctrl.RestoreGraph(doc.Graph, newProcessor); err != nil {
		return fmt.Errorf("session: restoring graph: %w", err)
	}
	if st := ctrl.SetTempo(doc.Transport.Tempo); !st.IsOK() {
		return fmt.Errorf("session: restoring tempo: %s", st)
	}
	if st := ctrl.SetTimeSignature(doc.Transport.TimeSignatureNum, doc.Transport.TimeSignatureDenom); !st.IsOK() {
		return fmt.Errorf("session: restoring time signature: %s", st)
	}
	if st := ctrl.SetPlayingMode(transport.PlayingMode(doc.Transport.PlayingMode)); !st.IsOK() {
		return fmt.Errorf("session: restoring playing mode: %s", st)
	}
	if st := ctrl.SetSyncMode(transport.SyncMode(doc.Transport.SyncMode)); !st.IsOK() {
		return fmt.Errorf("session: restoring sync mode: %s", st)
	}
	if midi != nil {
		for _, c := range doc.MIDIIn {
			midi.Connect(c)
		}
		for _, c := range doc.MIDIOut {
			midi.ConnectOutput(c)
		}
	}
	return nil
}
