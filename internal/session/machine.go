// Package session drives one websocket connection's capture windows: it
// accumulates audio frames, ends each window after a fixed duration, and
// hands the completed recording to the processing pipeline.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultAutoStop is how long a capture window stays open before it is
// forced shut.
const DefaultAutoStop = 3 * time.Second

const reasonAutoStop = "auto_stop"

type state int

const (
	stateIdle state = iota
	stateCapturing
	stateClosed
)

// Machine is the per-connection capture controller. At most one capture
// window is open at a time; a window's buffer is never touched again once
// its stop fired. Stopping is idempotent: the armed timer and the wall-clock
// check on the frame path race to the same transition, and whichever loses
// finds the state already left Capturing.
type Machine struct {
	mu        sync.Mutex
	state     state
	sessionID int64
	buf       []byte
	startedAt time.Time
	timer     *time.Timer

	autoStop time.Duration
	clock    func() time.Time

	sink Sink
	pipe *Pipeline
	log  *logrus.Entry

	// Outstanding pipeline runs. Teardown does not cancel them; a closed
	// connection just stops hearing about their results.
	tasks sync.WaitGroup
}

func NewMachine(sink Sink, pipe *Pipeline, autoStop time.Duration, log *logrus.Entry) *Machine {
	if autoStop <= 0 {
		autoStop = DefaultAutoStop
	}
	return &Machine{
		state:    stateIdle,
		autoStop: autoStop,
		clock:    time.Now,
		sink:     sink,
		pipe:     pipe,
		log:      log,
	}
}

// Feed handles one inbound audio frame. The first frame of a window opens
// it: session id assigned, auto-stop timer armed, recording_started emitted.
// Every subsequent frame appends to the buffer and re-checks elapsed time as
// a backup in case the timer is delayed.
func (m *Machine) Feed(frame []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateClosed {
		return
	}

	now := m.clock()

	if m.state == stateIdle {
		m.state = stateCapturing
		m.sessionID = now.Unix()
		m.startedAt = now
		m.timer = time.AfterFunc(m.autoStop, m.timerFired)

		m.log.WithField("session_id", m.sessionID).Info("recording started")
		m.emit(newRecordingStarted(m.sessionID))
	}

	m.buf = append(m.buf, frame...)

	if now.Sub(m.startedAt) >= m.autoStop {
		m.stopCaptureLocked(now)
	}
}

func (m *Machine) timerFired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != stateCapturing {
		return
	}
	m.stopCaptureLocked(m.clock())
}

// stopCaptureLocked ends the current window, launches processing for a
// non-empty buffer without waiting for it, and returns the machine to Idle.
// Safe to reach twice; the second caller sees the state already changed.
func (m *Machine) stopCaptureLocked(now time.Time) {
	if m.state != stateCapturing {
		return
	}
	m.state = stateIdle

	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}

	id := m.sessionID
	elapsed := now.Sub(m.startedAt).Seconds()

	m.log.WithFields(logrus.Fields{
		"session_id": id,
		"duration":   elapsed,
		"bytes":      len(m.buf),
	}).Info("recording stopped")
	m.emit(newRecordingStopped(id, elapsed, reasonAutoStop))

	if len(m.buf) > 0 {
		recording := m.buf
		m.tasks.Add(1)
		go func() {
			defer m.tasks.Done()
			m.pipe.Run(context.Background(), id, recording, m.sink)
		}()
	}

	m.emit(newReadyForNext(id))
	m.buf = nil
}

// Close tears the machine down: the timer is cancelled and no further events
// are emitted. In-flight pipeline runs are left to finish on their own.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = stateClosed
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.buf = nil
}

// Wait blocks until all launched pipeline runs have finished.
func (m *Machine) Wait() {
	m.tasks.Wait()
}

func (m *Machine) emit(v any) {
	if err := m.sink.Send(v); err != nil {
		m.log.WithError(err).Debug("event send failed")
	}
}
