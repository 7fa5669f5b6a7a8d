package selection

import "sync"

// Snapshot is the operator's selection. Empty strings mean absent.
type Snapshot struct {
	SelectedGCP  string
	CurrentImage string
}

// Ready reports whether a marker can be placed.
func (s Snapshot) Ready() bool {
	return s.SelectedGCP != "" && s.CurrentImage != ""
}

// Action is a selection transition.
type Action interface {
	apply(Snapshot) Snapshot
}

// SelectGCP sets the selected GCP. The name is not checked against any list.
type SelectGCP struct {
	Name string
}

func (a SelectGCP) apply(s Snapshot) Snapshot {
	s.SelectedGCP = a.Name
	return s
}

// SetCurrentImage sets the current image. An empty ID clears it.
type SetCurrentImage struct {
	ID string
}

func (a SetCurrentImage) apply(s Snapshot) Snapshot {
	s.CurrentImage = a.ID
	return s
}

// Reduce returns the snapshot that results from applying a to s.
func Reduce(s Snapshot, a Action) Snapshot {
	if a == nil {
		return s
	}
	return a.apply(s)
}

// Ticket identifies one marker fetch.
type Ticket struct {
	Image string
	Gen   uint64
}

// Store holds the live snapshot and the marker fetch generation.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
	gen  uint64
}

func NewStore() *Store {
	return &Store{}
}

// Dispatch applies a to the stored snapshot and returns the result.
func (s *Store) Dispatch(a Action) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Reduce(s.snap, a)
	return s.snap
}

// Snapshot returns the current selection.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Issue starts a new fetch generation for image. Every ticket issued
// earlier stops being current.
func (s *Store) Issue(image string) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return Ticket{Image: image, Gen: s.gen}
}

// Current reports whether t is the newest ticket and still names the
// current image.
func (s *Store) Current(t Ticket) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return t.Gen == s.gen && t.Image == s.snap.CurrentImage
}

// Values returns the selection as a pair, for log context.
func (s *Store) Values() (gcp, image string) {
	snap := s.Snapshot()
	return snap.SelectedGCP, snap.CurrentImage
}
