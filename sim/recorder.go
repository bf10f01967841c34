// sim/recorder.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/zephyrsim/zephyr/math"
)

const RecordingVersion = 1

// RecordingHeader is written once at the start of a recording.
type RecordingHeader struct {
	Version  int
	RunID    string
	Scenario string
	Seed     uint64
	Dt       float64
	Created  time.Time
	Vehicles []string
}

// Frame is the state of one vehicle after one tick.
type Frame struct {
	Tick     int
	Time     float64
	Vehicle  string
	Waypoint int
	Arrived  bool
	Position math.Vec3
	Velocity math.Vec3
	Wind     math.Vec3
	Accel    math.Vec3
	Distance float64
}

// Recorder writes a flight recording: a zstd-compressed stream of
// msgpack values, the header followed by frames.
type Recorder struct {
	Header RecordingHeader

	zw     *zstd.Encoder
	enc    *msgpack.Encoder
	frames int
}

// NewRecorder writes hdr to w and returns a Recorder for the frames that
// follow. A RunID is assigned if hdr does not have one. Close must be
// called to flush the stream; it does not close w.
func NewRecorder(w io.Writer, hdr RecordingHeader) (*Recorder, error) {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return nil, err
	}

	hdr.Version = RecordingVersion
	if hdr.RunID == "" {
		hdr.RunID = uuid.NewString()
	}
	if hdr.Created.IsZero() {
		hdr.Created = time.Now().UTC()
	}

	r := &Recorder{Header: hdr, zw: zw, enc: msgpack.NewEncoder(zw)}
	if err := r.enc.Encode(&hdr); err != nil {
		zw.Close()
		return nil, err
	}
	return r, nil
}

func (r *Recorder) Record(f Frame) error {
	r.frames++
	return r.enc.Encode(&f)
}

func (r *Recorder) Frames() int {
	return r.frames
}

func (r *Recorder) Close() error {
	return r.zw.Close()
}

// ReadRecording decodes a recording written by a Recorder.
func ReadRecording(rd io.Reader) (RecordingHeader, []Frame, error) {
	var hdr RecordingHeader

	zr, err := zstd.NewReader(rd)
	if err != nil {
		return hdr, nil, err
	}
	defer zr.Close()

	dec := msgpack.NewDecoder(zr)
	if err := dec.Decode(&hdr); err != nil {
		return hdr, nil, fmt.Errorf("header: %w: %w", ErrBadRecording, err)
	}
	if hdr.Version != RecordingVersion {
		return hdr, nil, fmt.Errorf("version %d: %w", hdr.Version, ErrBadRecording)
	}

	var frames []Frame
	for {
		var f Frame
		if err := dec.Decode(&f); errors.Is(err, io.EOF) {
			return hdr, frames, nil
		} else if err != nil {
			return hdr, frames, fmt.Errorf("frame %d: %w: %w", len(frames), ErrBadRecording, err)
		}
		frames = append(frames, f)
	}
}

// VehicleSummary holds statistics for one vehicle over a recording.
type VehicleSummary struct {
	Vehicle          string
	Frames           int
	Duration         float64
	PathLength       float64
	MaxSpeed         float64
	MaxWind          float64
	MeanWind         float64
	WaypointsReached int
}

type Summary struct {
	RunID    string
	Scenario string
	Vehicles []VehicleSummary
}

// Summarize computes per-vehicle statistics from a recording's frames.
// Vehicles are reported in header order, followed by any that appear
// only in the frames.
func Summarize(hdr RecordingHeader, frames []Frame) Summary {
	s := Summary{RunID: hdr.RunID, Scenario: hdr.Scenario}

	idx := make(map[string]int)
	add := func(v string) int {
		if i, ok := idx[v]; ok {
			return i
		}
		idx[v] = len(s.Vehicles)
		s.Vehicles = append(s.Vehicles, VehicleSummary{Vehicle: v})
		return idx[v]
	}
	for _, v := range hdr.Vehicles {
		add(v)
	}

	last := make(map[string]Frame)
	for _, f := range frames {
		vs := &s.Vehicles[add(f.Vehicle)]
		if prev, ok := last[f.Vehicle]; ok {
			vs.PathLength += math.Distance3(prev.Position, f.Position)
		}
		vs.Frames++
		vs.Duration = max(vs.Duration, f.Time)
		vs.MaxSpeed = max(vs.MaxSpeed, math.Length3(f.Velocity))
		w := math.Length3(f.Wind)
		vs.MaxWind = max(vs.MaxWind, w)
		vs.MeanWind += w
		if f.Arrived {
			vs.WaypointsReached++
		}
		last[f.Vehicle] = f
	}
	for i := range s.Vehicles {
		if n := s.Vehicles[i].Frames; n > 0 {
			s.Vehicles[i].MeanWind /= float64(n)
		}
	}
	return s
}
