package sink

import (
	"sync"

	"github.com/osvaldoandrade/imagegenie/pkg/domain"
)

// View is a consistent snapshot handed to viewers after every mutation.
type View struct {
	Items  []domain.GeneratedImage
	Cursor int
}

// Current returns the item under the cursor.
func (v View) Current() (domain.GeneratedImage, bool) {
	if v.Cursor < 0 || v.Cursor >= len(v.Items) {
		return domain.GeneratedImage{}, false
	}
	return v.Items[v.Cursor], true
}

// Viewer renders sink snapshots. Refresh may read the sink but must not mutate it.
type Viewer interface {
	Refresh(View)
}

type ViewerFunc func(View)

func (f ViewerFunc) Refresh(v View) { f(v) }

// Sink is the ordered carousel collection keyed by generation name.
// A brand-new name becomes current; replacing an existing name leaves the cursor alone.
type Sink struct {
	// notify serializes mutation+notification so viewers see snapshots in order.
	notify sync.Mutex

	mu      sync.RWMutex
	items   []domain.GeneratedImage
	index   map[string]int
	cursor  int
	viewers map[int]Viewer
	nextID  int
}

func New() *Sink {
	return &Sink{index: map[string]int{}, viewers: map[int]Viewer{}}
}

// Attach registers a viewer and immediately refreshes it. The returned func detaches it.
func (s *Sink) Attach(v Viewer) func() {
	s.notify.Lock()
	defer s.notify.Unlock()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.viewers[id] = v
	view := s.snapshotLocked()
	s.mu.Unlock()

	v.Refresh(view)
	return func() {
		s.mu.Lock()
		delete(s.viewers, id)
		s.mu.Unlock()
	}
}

// AppendOrReplace stores rec under rec.Name and returns its index.
func (s *Sink) AppendOrReplace(rec domain.GeneratedImage) int {
	var idx int
	s.mutate(func() bool {
		if i, ok := s.index[rec.Name]; ok {
			s.items[i] = rec
			idx = i
			return true
		}
		s.items = append(s.items, rec)
		idx = len(s.items) - 1
		s.index[rec.Name] = idx
		s.cursor = idx
		return true
	})
	return idx
}

func (s *Sink) Clear() {
	s.mutate(func() bool {
		s.items = nil
		s.index = map[string]int{}
		s.cursor = 0
		return true
	})
}

// Navigate moves the cursor by delta, clamped to the collection. It reports
// whether the cursor moved.
func (s *Sink) Navigate(delta int) bool {
	moved := false
	s.mutate(func() bool {
		if len(s.items) == 0 {
			return false
		}
		next := clamp(s.cursor+delta, 0, len(s.items)-1)
		moved = next != s.cursor
		s.cursor = next
		return moved
	})
	return moved
}

// Seek places the cursor at i, clamped.
func (s *Sink) Seek(i int) bool {
	moved := false
	s.mutate(func() bool {
		if len(s.items) == 0 {
			return false
		}
		next := clamp(i, 0, len(s.items)-1)
		moved = next != s.cursor
		s.cursor = next
		return moved
	})
	return moved
}

func (s *Sink) Current() (domain.GeneratedImage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.items) == 0 {
		return domain.GeneratedImage{}, false
	}
	return s.items[s.cursor], true
}

func (s *Sink) Cursor() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

func (s *Sink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Sink) Items() []domain.GeneratedImage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.GeneratedImage, len(s.items))
	copy(out, s.items)
	return out
}

// Index returns the position of name, or -1.
func (s *Sink) Index(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

func (s *Sink) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Sink) mutate(fn func() bool) {
	s.notify.Lock()
	defer s.notify.Unlock()

	s.mu.Lock()
	changed := fn()
	var view View
	var viewers []Viewer
	if changed {
		view = s.snapshotLocked()
		viewers = make([]Viewer, 0, len(s.viewers))
		for _, v := range s.viewers {
			viewers = append(viewers, v)
		}
	}
	s.mu.Unlock()

	for _, v := range viewers {
		v.Refresh(view)
	}
}

func (s *Sink) snapshotLocked() View {
	items := make([]domain.GeneratedImage, len(s.items))
	copy(items, s.items)
	return View{Items: items, Cursor: s.cursor}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
