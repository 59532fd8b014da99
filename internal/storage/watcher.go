// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrWatchUnsupported is returned by Watch for backends that are not a
// single file on disk.
var ErrWatchUnsupported = errors.New("backend does not support change notification")

// DefaultWatchDebounce coalesces the burst of events an atomic rewrite
// produces (create temp, write, chmod, rename).
const DefaultWatchDebounce = 150 * time.Millisecond

// Watch reports changes made to the store file by any process, including
// this one. Each receive on the returned channel means "reload"; bursts are
// coalesced. The channel is closed when ctx is done.
//
// Only FileBackend supports watching.
func (s *ConversationStore) Watch(ctx context.Context) (<-chan struct{}, error) {
	fb, ok := s.backend.(*FileBackend)
	if !ok {
		return nil, ErrWatchUnsupported
	}
	return watchFile(ctx, fb.Path(), DefaultWatchDebounce)
}

// watchFile watches the directory containing path, since atomic renames
// replace the inode a direct file watch would be bound to.
func watchFile(ctx context.Context, path string, debounce time.Duration) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	target := filepath.Clean(path)
	out := make(chan struct{}, 1)

	go func() {
		defer watcher.Close()
		defer close(out)

		var timer *time.Timer
		var fire <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(debounce)
				}
				fire = timer.C

			case <-fire:
				fire = nil
				select {
				case out <- struct{}{}:
				default:
					// A notification is already pending.
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return out, nil
}
