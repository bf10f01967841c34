// sim/recorder_test.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"bytes"
	"context"
	"errors"
	gomath "math"
	"testing"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/zephyrsim/zephyr/math"
	"github.com/zephyrsim/zephyr/wx"
)

func TestRecorderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf, RecordingHeader{Scenario: "test", Seed: 5, Dt: 0.5, Vehicles: []string{"x"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(rec.Header.RunID); err != nil {
		t.Errorf("RunID %q: %v", rec.Header.RunID, err)
	}

	frames := []Frame{
		{Tick: 1, Time: 0.5, Vehicle: "x", Position: math.Vec3{0, 0, 0}, Velocity: math.Vec3{1, 0, 0}, Wind: math.Vec3{0, 3, 4}},
		{Tick: 2, Time: 1, Vehicle: "x", Position: math.Vec3{3, 0, 4}, Velocity: math.Vec3{0, 2, 0}, Wind: math.Vec3{1, 0, 0}},
		{Tick: 3, Time: 1.5, Vehicle: "x", Arrived: true, Position: math.Vec3{3, 0, 4}},
	}
	for _, f := range frames {
		if err := rec.Record(f); err != nil {
			t.Fatal(err)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}

	hdr, got, err := ReadRecording(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if hdr.RunID != rec.Header.RunID || hdr.Scenario != "test" || hdr.Seed != 5 || hdr.Version != RecordingVersion {
		t.Errorf("header = %+v", hdr)
	}
	if len(got) != len(frames) {
		t.Fatalf("got %d frames, want %d", len(got), len(frames))
	}
	for i := range frames {
		if got[i] != frames[i] {
			t.Errorf("frame %d = %+v, want %+v", i, got[i], frames[i])
		}
	}

	s := Summarize(hdr, got)
	if len(s.Vehicles) != 1 {
		t.Fatalf("summary has %d vehicles", len(s.Vehicles))
	}
	vs := s.Vehicles[0]
	if vs.Frames != 3 || vs.PathLength != 5 || vs.MaxSpeed != 2 || vs.MaxWind != 5 ||
		vs.WaypointsReached != 1 || vs.Duration != 1.5 {
		t.Errorf("summary = %+v", vs)
	}
	if gomath.Abs(vs.MeanWind-2) > 1e-12 {
		t.Errorf("mean wind = %v, want 2", vs.MeanWind)
	}
}

func TestReadRecordingErrors(t *testing.T) {
	var buf bytes.Buffer
	zw, _ := zstd.NewWriter(&buf)
	zw.Write([]byte("hello, world"))
	zw.Close()

	if _, _, err := ReadRecording(&buf); !errors.Is(err, ErrBadRecording) {
		t.Errorf("ReadRecording of garbage: got %v, want ErrBadRecording", err)
	}
}

func TestMissionRecording(t *testing.T) {
	field := wx.NewWindField(0, 1, nil)
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf, RecordingHeader{Vehicles: []string{"drone"}})
	if err != nil {
		t.Fatal(err)
	}

	m := makeMission(t, field, nil, testWaypoints[:3], MissionOptions{Recorder: rec})
	res, err := m.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	rec.Close()

	hdr, frames, err := ReadRecording(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != res.Ticks || rec.Frames() != res.Ticks {
		t.Errorf("%d frames recorded for %d ticks", len(frames), res.Ticks)
	}
	s := Summarize(hdr, frames)
	if s.Vehicles[0].WaypointsReached != 3 {
		t.Errorf("summary reports %d waypoints reached, want 3", s.Vehicles[0].WaypointsReached)
	}
	if gomath.Abs(s.Vehicles[0].PathLength-res.PathLength) > 1e-9 {
		t.Errorf("summary path length %v, mission %v", s.Vehicles[0].PathLength, res.PathLength)
	}
}
