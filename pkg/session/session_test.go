package session

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elk-audio/sushi-go/pkg/controller"
	"github.com/elk-audio/sushi-go/pkg/dispatch"
	"github.com/elk-audio/sushi-go/pkg/engine"
	"github.com/elk-audio/sushi-go/pkg/mididispatch"
	"github.com/elk-audio/sushi-go/pkg/processor"
	"github.com/elk-audio/sushi-go/pkg/processor/builtin"
	"github.com/elk-audio/sushi-go/pkg/track"
)

func newTestSession(t *testing.T) (*controller.Controller, *engine.Engine) {
	t.Helper()
	eng := engine.New(48000, 2, 2, 64, 64)
	disp := dispatch.New()
	go disp.Run()
	t.Cleanup(disp.Stop)
	return controller.New(eng, disp), eng
}

func testFactory(name string, id uint32) (processor.Processor, error) {
	switch name {
	case "Gain":
		return builtin.NewGain(id), nil
	default:
		return nil, fmt.Errorf("unknown processor type %q", name)
	}
}

func TestCaptureSaveLoadRoundTrips(t *testing.T) {
	ctrl, eng := newTestSession(t)
	require.True(t, ctrl.CreateTrack(1, "Lead", track.KindRegular, 2, 64).IsOK())
	g := builtin.NewGain(10)
	g.Parameters().Set(builtin.ParamGain, 0.25)
	require.True(t, ctrl.AddProcessorToTrack(1, g).IsOK())

	require.True(t, ctrl.SetTempo(90).IsOK())

	midi := mididispatch.New(1, 1)
	midi.Connect(mididispatch.InputConnection{
		Port:    0,
		Channel: 0,
		Kind:    mididispatch.KindNoteOn,
		Target:  mididispatch.TargetTrackKeyboard,
		TrackID: 1,
	})

	ts := TransportState{
		Tempo:              eng.Transport().Tempo(),
		TimeSignatureNum:   4,
		TimeSignatureDenom: 4,
	}
	doc, err := Capture(ctrl, ts, midi)
	require.NoError(t, err)
	require.Len(t, doc.Graph.Tracks, 1)
	require.Len(t, doc.MIDIIn, 1)

	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, Save(doc, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Graph, loaded.Graph)
	assert.Equal(t, doc.Transport, loaded.Transport)

	restoredMIDI := mididispatch.New(1, 1)
	require.NoError(t, Restore(loaded, ctrl, testFactory, restoredMIDI))

	tracks := ctrl.GetAllTracks()
	require.Len(t, tracks, 1)
	params, st := ctrl.GetProcessorParameters(10)
	require.True(t, st.IsOK())
	assert.InDelta(t, 0.25, params[0].Normalized, 1e-9)
	assert.Len(t, restoredMIDI.Connections(), 1)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
