package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

// Params is a flat snapshot of every configuration key and its value.
type Params map[string]any

// Snapshot captures the current configuration.
func Snapshot() Params {
	keys := viper.AllKeys()
	p := make(Params, len(keys))
	for _, k := range keys {
		p[k] = viper.Get(k)
	}
	return p
}

// Diff returns the sorted keys whose values differ between p and next,
// including keys present in only one of them.
func (p Params) Diff(next Params) []string {
	var changed []string
	for k, v := range next {
		if old, ok := p[k]; !ok || !reflect.DeepEqual(old, v) {
			changed = append(changed, k)
		}
	}
	for k := range p {
		if _, ok := next[k]; !ok {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

// ChangedClasses maps changed keys of the form classes.<name>.<field> to
// class names, each once and in key order. viper lowercases keys, so the
// names are matched case-insensitively against known.
func ChangedClasses(keys []string, known []core.ClassName) []core.ClassName {
	byLower := make(map[string]core.ClassName, len(known))
	for _, name := range known {
		byLower[strings.ToLower(string(name))] = name
	}
	seen := map[core.ClassName]bool{}
	var out []core.ClassName
	for _, k := range keys {
		rest, ok := strings.CutPrefix(k, "classes.")
		if !ok {
			continue
		}
		raw, _, _ := strings.Cut(rest, ".")
		name, ok := byLower[raw]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// Watcher tracks configuration changes between ticks. File events only set
// flags; viper is read and reloaded by the tick loop in Detect alone, since
// viper is not safe for concurrent use.
type Watcher struct {
	mu      sync.Mutex
	last    Params
	dirty   atomic.Bool
	reload  atomic.Bool
	fsw     *fsnotify.Watcher
	stopped chan struct{}
}

// NewWatcher snapshots the current configuration as the baseline.
func NewWatcher() *Watcher {
	return &Watcher{last: Snapshot()}
}

// Watch starts watching the config file for writes. The directory is
// watched so that editors replacing the file are noticed too.
func (w *Watcher) Watch() error {
	file := viper.ConfigFileUsed()
	if file == "" {
		return errors.New("no config file in use")
	}
	file = filepath.Clean(file)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(file)); err != nil {
		fsw.Close()
		return fmt.Errorf("watching %s: %w", file, err)
	}

	w.mu.Lock()
	w.fsw = fsw
	w.stopped = make(chan struct{})
	stopped := w.stopped
	w.mu.Unlock()

	go func() {
		defer close(stopped)
		for {
			select {
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) == file && ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					w.reload.Store(true)
					w.dirty.Store(true)
				}
			case _, ok := <-fsw.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}

// Close stops watching the config file.
func (w *Watcher) Close() error {
	w.mu.Lock()
	fsw, stopped := w.fsw, w.stopped
	w.fsw = nil
	w.mu.Unlock()
	if fsw == nil {
		return nil
	}
	err := fsw.Close()
	<-stopped
	return err
}

// MarkDirty forces the next Detect to compare snapshots.
func (w *Watcher) MarkDirty() {
	w.dirty.Store(true)
}

// Dirty reports whether a change is pending.
func (w *Watcher) Dirty() bool {
	return w.dirty.Load()
}

// Detect returns the keys changed since the last call, or nil when nothing
// is pending. A changed file is read again first; on a read error the
// previous configuration stays in effect.
func (w *Watcher) Detect() ([]string, error) {
	if !w.dirty.Swap(false) {
		return nil, nil
	}
	if w.reload.Swap(false) {
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reloading config: %w", err)
		}
	}
	next := Snapshot()
	w.mu.Lock()
	defer w.mu.Unlock()
	changed := w.last.Diff(next)
	w.last = next
	return changed, nil
}
