package reload

import (
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow is the coalescing window for a burst of filesystem
// events; not prescriptive per the spec, chosen from the middle of its
// suggested 50-150ms range.
const debounceWindow = 100 * time.Millisecond

// Watcher coalesces a burst of source-tree filesystem events into a
// single debounced change signal.
type Watcher struct {
	fsw     *fsnotify.Watcher
	Changes chan struct{}
	Errors  chan error
	done    chan struct{}
}

// NewWatcher starts watching dir (recursively adding every
// subdirectory present at construction time) and begins debouncing
// events onto Changes.
func NewWatcher(dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := addRecursive(fsw, dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		Changes: make(chan struct{}, 1),
		Errors:  make(chan error, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func addRecursive(fsw *fsnotify.Watcher, dir string) error {
	return walkDirs(dir, func(path string) error {
		return fsw.Add(path)
	})
}

func (w *Watcher) run() {
	var timer *time.Timer
	var fired <-chan time.Time

	notify := func() {
		select {
		case w.Changes <- struct{}{}:
		default:
			// a debounced signal is already pending; the coalescing is
			// the point, so drop this one.
		}
	}

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !isSourceEvent(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				fired = timer.C
			} else {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(debounceWindow)
			}

		case <-fired:
			timer = nil
			fired = nil
			notify()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		}
	}
}

// isSourceEvent filters out pure metadata churn (chmod) that shouldn't
// trigger a rebuild.
func isSourceEvent(ev fsnotify.Event) bool {
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
