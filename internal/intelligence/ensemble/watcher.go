package ensemble

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
)

// ArtifactWatcher hot-reloads model artifacts when the files in the models
// directory change on disk, e.g. after a deployment job drops a new
// metadata.json.
type ArtifactWatcher struct {
	fsw *fsnotify.Watcher
	log logging.Logger
}

// WatchArtifacts watches dir for changes to metadata.json or policy.json and
// invokes onChange after each relevant write.  Reload errors never propagate:
// a broken artifact leaves the previous snapshot active.
func WatchArtifacts(dir string, log logging.Logger, onChange func()) (*ArtifactWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &ArtifactWatcher{fsw: fsw, log: log}
	go w.loop(onChange)
	return w, nil
}

func (w *ArtifactWatcher) loop(onChange func()) {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !relevantArtifact(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.log.Info("model artifact changed", logging.String("file", event.Name))
			onChange()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("artifact watcher error", logging.Err(err))
		}
	}
}

func relevantArtifact(path string) bool {
	switch filepath.Base(path) {
	case MetadataFileName, PolicyFileName:
		return true
	}
	return false
}

// Close stops the watcher.
func (w *ArtifactWatcher) Close() error {
	return w.fsw.Close()
}
