package storage

import (
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// WatchDirs watches the given directories for changes to files with the
// given suffix and emits session events. sessionID derives a session
// identifier from a changed file's path; events for paths it maps to ""
// are dropped. The channel closes when the underlying watcher fails.
func WatchDirs(dirs []string, suffix string, sessionID func(path string) string) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	events := make(chan Event, 32)

	go func() {
		defer watcher.Close()
		defer close(events)

		var debounceTimer *time.Timer
		var lastEvent fsnotify.Event

		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if suffix != "" && !hasSuffix(ev.Name, suffix) {
					continue
				}
				lastEvent = ev

				// Debounce rapid writes to the same file
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(watchDebounce, func() {
					id := sessionID(lastEvent.Name)
					if id == "" {
						return
					}

					var eventType EventType
					switch {
					case lastEvent.Op&fsnotify.Create != 0:
						eventType = EventSessionCreated
					case lastEvent.Op&fsnotify.Write != 0:
						eventType = EventMessageAdded
					case lastEvent.Op&fsnotify.Remove != 0:
						return
					default:
						eventType = EventSessionUpdated
					}

					select {
					case events <- Event{Type: eventType, SessionID: id}:
					default:
						// Channel full, drop event
					}
				})

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return events, nil
}

func hasSuffix(name, suffix string) bool {
	return len(name) >= len(suffix) && name[len(name)-len(suffix):] == suffix
}
