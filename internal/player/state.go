package player

import (
	"slices"
	"sync"

	"github.com/desertthunder/soundwave/internal/models"
)

// Snapshot is a copy of [State] safe to hand to other goroutines.
type Snapshot struct {
	CurrentTrack *models.Track
	IsPlaying    bool
	IsCollapsed  bool
	Queue        []models.Track
}

// HasTrack reports whether there is anything to show in a now-playing view.
func (s Snapshot) HasTrack() bool {
	return s.CurrentTrack != nil
}

// State is the local view of remote playback. Only the [Orchestrator] writes the track and
// playing flag; the collapsed flag and queue belong to the view.
type State struct {
	mu           sync.RWMutex
	currentTrack *models.Track
	isPlaying    bool
	isCollapsed  bool
	queue        []models.Track
	subscribers  map[int]chan Snapshot
	nextID       int
}

func NewState() *State {
	return &State{subscribers: make(map[int]chan Snapshot)}
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *State) snapshot() Snapshot {
	snap := Snapshot{IsPlaying: s.isPlaying, IsCollapsed: s.isCollapsed, Queue: slices.Clone(s.queue)}
	if s.currentTrack != nil {
		t := *s.currentTrack
		snap.CurrentTrack = &t
	}
	return snap
}

// Apply replaces the track and playing flag together.
func (s *State) Apply(track *models.Track, playing bool) {
	s.update(func() {
		if track == nil {
			s.currentTrack = nil
		} else {
			t := *track
			s.currentTrack = &t
		}
		s.isPlaying = playing
	})
}

func (s *State) SetPlaying(playing bool) {
	s.update(func() { s.isPlaying = playing })
}

func (s *State) SetCollapsed(collapsed bool) {
	s.update(func() { s.isCollapsed = collapsed })
}

// ToggleCollapsed flips the collapsed flag and returns the new value.
func (s *State) ToggleCollapsed() bool {
	var collapsed bool
	s.update(func() {
		s.isCollapsed = !s.isCollapsed
		collapsed = s.isCollapsed
	})
	return collapsed
}

func (s *State) SetQueue(tracks []models.Track) {
	s.update(func() { s.queue = slices.Clone(tracks) })
}

func (s *State) AddToQueue(track models.Track) {
	s.update(func() { s.queue = append(s.queue, track) })
}

// Reset returns to the initial state: nothing playing, expanded, empty queue.
func (s *State) Reset() {
	s.update(func() {
		s.currentTrack = nil
		s.isPlaying = false
		s.isCollapsed = false
		s.queue = nil
	})
}

// Subscribe returns a channel receiving a snapshot after every change, and a function that
// unsubscribes and closes it. A subscriber that falls behind misses intermediate snapshots.
func (s *State) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *State) update(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn()
	snap := s.snapshot()
	for _, ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}
