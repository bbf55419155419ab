package job

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"foundrycore/channel"
)

// ShutdownFileEnvVar names the environment variable holding the path to a
// file whose appearance or modification requests shutdown, mirroring the
// WebJobs SDK's WEBJOBS_SHUTDOWN_FILE convention.
const ShutdownFileEnvVar = "WEBJOBS_SHUTDOWN_FILE"

var (
	shutdownOnce sync.Once
	shutdownCh   chan struct{}
)

// Shutdown returns the process-wide cancellation channel, lazily wiring
// it to an interrupt signal and, if ShutdownFileEnvVar is set, a
// filesystem watcher on that file's directory. The channel is closed
// exactly once, the first time either source fires.
func Shutdown() <-chan struct{} {
	shutdownOnce.Do(func() {
		shutdownCh = make(chan struct{})
		var closeOnce sync.Once
		trigger := func() { closeOnce.Do(func() { close(shutdownCh) }) }

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt)
		go func() {
			<-sig
			trigger()
		}()

		if path := os.Getenv(ShutdownFileEnvVar); path != "" {
			watchShutdownFile(path, trigger)
		}
	})
	return shutdownCh
}

func watchShutdownFile(path string, trigger func()) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.WithError(err).Warn("could not install shutdown file watcher")
		return
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		log.WithError(err).WithField("dir", dir).Warn("could not watch shutdown file directory")
		watcher.Close()
		return
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) == filepath.Clean(path) {
					trigger()
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("shutdown file watcher error")
			}
		}
	}()
}

// RunInConsole composes ctx with the process-wide shutdown signal via
// channel.Or and drives j continuously until either one fires.
func RunInConsole(ctx context.Context, j Job, opts Options) int {
	linked, cancel := context.WithCancel(ctx)
	defer cancel()

	combined := channel.Or(ctx.Done(), Shutdown())
	go func() {
		<-combined
		cancel()
	}()

	return RunContinuous(linked, j, opts)
}
