package hmr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modkit-dev/modkit/internal/graph"
	"github.com/modkit-dev/modkit/internal/metrics"
	"github.com/modkit-dev/modkit/internal/telemetry"
	"github.com/modkit-dev/modkit/pkg/plugin"
)

// Orchestrator coordinates hot updates for file changes: it classifies
// each changed file, lets plugins override the affected module set, runs
// boundary propagation, and emits at most one message per change.
//
// HandleFileChange must never run concurrently with itself; the dev
// server guarantees this by draining watcher events on a single
// goroutine. Transforms on request goroutines rewire graph edges at any
// time, so the propagation walk runs under the graph's write lock.
type Orchestrator struct {
	// Graph is the live module graph.
	Graph *graph.ModuleGraph

	// Plugins are consulted in order for each change; see
	// plugin.Plugin.HandleHotUpdate.
	Plugins []plugin.Plugin

	// Transport delivers messages to connected clients.
	Transport Transport

	// Root is the absolute project root, used to derive client-facing
	// paths.
	Root string

	// ConfigPath is the live config file's absolute path. Changes to it
	// are logged and otherwise ignored: restarting on config changes is
	// the caller's policy, not handled here.
	ConfigPath string

	// ClientDir is the on-disk directory holding the client runtime.
	// Changes under it always force a full reload.
	ClientDir string

	// Metrics collectors; nil disables instrumentation.
	Metrics *metrics.Metrics

	// Logf is the diagnostic sink. Defaults to a timestamped stdout line.
	Logf func(format string, args ...any)

	// Now returns the HMR timestamp for a batch. Defaults to wall-clock
	// milliseconds; injectable for tests.
	Now func() int64
}

func (o *Orchestrator) log(format string, args ...any) {
	if o.Logf != nil {
		o.Logf(format, args...)
		return
	}
	fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
}

func (o *Orchestrator) now() int64 {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now().UnixMilli()
}

// HandleFileChange processes one changed file to completion. The returned
// error is a plugin hook failure; hook overrides are all-or-nothing, so
// there is no partial recovery here.
func (o *Orchestrator) HandleFileChange(ctx context.Context, file string) error {
	ctx, span := telemetry.StartFileChange(ctx, file)

	if o.ConfigPath != "" && isSamePath(file, o.ConfigPath) {
		o.log("config %s changed, restart the server to apply", filepath.Base(file))
		telemetry.EndWithResult(span, "config", 0, nil)
		return nil
	}

	if isEnvFile(file) {
		o.log("%s changed, restart the server to apply", filepath.Base(file))
		telemetry.EndWithResult(span, "env", 0, nil)
		return nil
	}

	// HTML documents and the client runtime itself cannot be hot-swapped.
	// This short-circuits before any graph lookup.
	if strings.HasSuffix(file, ".html") || (o.ClientDir != "" && isWithinDir(file, o.ClientDir)) {
		page := o.rootRelativeURL(file)
		o.log("page reload %s", page)
		o.sendFullReload(page, "html")
		telemetry.EndWithResult(span, "full-reload", 0, nil)
		return nil
	}

	mods := o.Graph.GetModulesByFile(file)
	if len(mods) == 0 {
		o.log("no modules matched %s", o.rootRelativeURL(file))
		telemetry.EndWithResult(span, "no-modules", 0, nil)
		return nil
	}

	timestamp := o.now()

	// Plugins see each other's output, strictly in registration order.
	for _, p := range o.Plugins {
		if p.HandleHotUpdate == nil {
			continue
		}
		result, err := p.HandleHotUpdate(ctx, &plugin.HotUpdateContext{
			File:      file,
			Timestamp: timestamp,
			Modules:   mods,
		})
		if err != nil {
			telemetry.EndWithResult(span, "error", 0, err)
			return fmt.Errorf("plugin %s: handleHotUpdate: %w", p.Name, err)
		}
		if len(result) > 0 {
			mods = result
		}
	}

	started := time.Now()
	var boundaries []Boundary
	var deadEnd string

	// Request goroutines rewire importer and accepted-dep edges through
	// UpdateModuleInfo. The walk holds the graph lock so the whole batch
	// sees one consistent edge snapshot.
	o.Graph.Lock()
	for _, mod := range mods {
		if propagateUpdate(mod, timestamp, &boundaries, []*graph.ModuleNode{mod}) {
			deadEnd = mod.URL
			break
		}
	}
	o.Graph.Unlock()
	o.observePropagation(started)

	if deadEnd != "" {
		// One dead end anywhere supersedes every partial boundary already
		// found for this batch.
		o.log("full reload: %s cannot be hot-updated", deadEnd)
		o.sendFullReload("", "dead-end")
		telemetry.EndWithResult(span, "full-reload", 0, nil)
		return nil
	}

	if len(boundaries) == 0 {
		o.log("no update happened for %s", o.rootRelativeURL(file))
		telemetry.EndWithResult(span, "no-update", 0, nil)
		return nil
	}

	updates := make([]Update, 0, len(boundaries))
	for _, b := range boundaries {
		updates = append(updates, Update{
			Type:         string(b.Module.Type) + "-update",
			Timestamp:    timestamp,
			Path:         b.Module.URL,
			AcceptedPath: b.AcceptedVia.URL,
		})
	}

	o.log("hot update %s (%d boundaries)", o.rootRelativeURL(file), len(updates))
	o.Transport.Send(Message{Type: MessageUpdate, Updates: updates})
	if o.Metrics != nil {
		o.Metrics.HotUpdatesTotal.Inc()
		o.Metrics.UpdateRecordsTotal.Add(float64(len(updates)))
	}
	telemetry.EndWithResult(span, "update", len(updates), nil)
	return nil
}

func (o *Orchestrator) sendFullReload(path, reason string) {
	o.Transport.Send(Message{Type: MessageFullReload, Path: path})
	if o.Metrics != nil {
		o.Metrics.FullReloadsTotal.WithLabelValues(reason).Inc()
	}
}

func (o *Orchestrator) observePropagation(started time.Time) {
	if o.Metrics != nil {
		o.Metrics.PropagationDuration.Observe(time.Since(started).Seconds())
	}
}

// rootRelativeURL converts an absolute file path into the slash-normalized
// root-relative form clients see.
func (o *Orchestrator) rootRelativeURL(file string) string {
	if o.Root != "" {
		if rel, err := filepath.Rel(o.Root, file); err == nil && !strings.HasPrefix(rel, "..") {
			return "/" + filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(file)
}

// isEnvFile reports whether the file is an environment file (.env or a
// .env.* variant).
func isEnvFile(file string) bool {
	base := filepath.Base(file)
	return base == ".env" || strings.HasPrefix(base, ".env.")
}

func isWithinDir(path, dir string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	absDir = filepath.Clean(absDir)
	if absPath == absDir {
		return true
	}
	if !strings.HasSuffix(absDir, string(os.PathSeparator)) {
		absDir += string(os.PathSeparator)
	}
	return strings.HasPrefix(absPath, absDir)
}

func isSamePath(a, b string) bool {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false
	}
	return filepath.Clean(absA) == filepath.Clean(absB)
}
