// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package host

import (
	"errors"

	"github.com/fsnotify/fsnotify"
)

// RCWatcher notifies a long-lived embedding host when a watched rc file
// (e.g. the path named by $BASH_ENV, or a user's .profile) changes on disk,
// so the host can decide whether to re-source it. It is strictly optional
// and off by default: nothing in the core executor depends on it, and a
// [shell.Session] that never calls WatchRC behaves exactly as before.
type RCWatcher struct {
	w      *fsnotify.Watcher
	events chan struct{}
	done   chan struct{}
}

// NewRCWatcher starts watching path for writes, creates, and renames.
// Callers must call Close when done to release the underlying OS watch.
func NewRCWatcher(path string, log Logger) (*RCWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}
	rw := &RCWatcher{
		w:      w,
		events: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go rw.loop(path, log)
	return rw, nil
}

func (rw *RCWatcher) loop(path string, log Logger) {
	for {
		select {
		case ev, ok := <-rw.w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case rw.events <- struct{}{}:
			default:
				// A reload is already pending; coalesce.
			}
		case err, ok := <-rw.w.Errors:
			if !ok {
				return
			}
			if err != nil && !errors.Is(err, fsnotify.ErrEventOverflow) {
				log.RCWatchFailed(err, path)
			}
		case <-rw.done:
			return
		}
	}
}

// Changed delivers a value each time the watched file is written, created,
// or renamed. Rapid-fire changes coalesce into a single pending notification
// rather than queuing unboundedly.
func (rw *RCWatcher) Changed() <-chan struct{} {
	return rw.events
}

// Close stops the watch and releases its OS resources.
func (rw *RCWatcher) Close() error {
	close(rw.done)
	return rw.w.Close()
}
