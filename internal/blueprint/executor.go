package blueprint

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dotcommander/stackforge/internal/storage"
	"github.com/dotcommander/stackforge/pkg/forge"
	forgeerr "github.com/dotcommander/stackforge/pkg/forge/errors"
)

// defaultManifestPath is where ADD_SCRIPT edits land when the action
// names no path
const defaultManifestPath = "package.json"

// defaultEnvPath is where ADD_ENV_VAR edits land when the action names
// no path
const defaultEnvPath = ".env"

// Executor applies a blueprint's actions to the project tree in
// declared order, either directly or through the transactional overlay,
// and reports a single pass/fail outcome with per-action detail.
type Executor struct {
	fs     *storage.FileSystem
	runner *Runner
	pm     PackageManager
	logger *slog.Logger
}

// NewExecutor creates an executor over a project filesystem
func NewExecutor(fs *storage.FileSystem, runner *Runner, pm PackageManager, logger *slog.Logger) *Executor {
	if runner == nil {
		runner = NewRunner()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if pm == "" {
		pm = NPM
	}
	return &Executor{fs: fs, runner: runner, pm: pm, logger: logger}
}

// Execute applies the blueprint. Strategy is chosen by analysis: a
// blueprint with no VFS-required actions runs direct-to-disk with no
// rollback of already-applied actions; any VFS-required action routes
// the whole blueprint through the overlay, making its file writes
// all-or-nothing with respect to pre-existing files.
func (e *Executor) Execute(ctx context.Context, bp *forge.Blueprint) (*forge.ExecutionResult, error) {
	start := time.Now()
	analysis := Analyze(bp)

	result := &forge.ExecutionResult{
		BlueprintID: bp.ID,
		Success:     true,
		Mode:        forge.ModeDirect,
	}
	if analysis.NeedsVFS {
		result.Mode = forge.ModeTransactional
	}

	e.logger.Info("executing blueprint",
		"blueprint", bp.ID,
		"mode", result.Mode,
		"complexity", analysis.Complexity,
		"actions", len(bp.Actions))

	var err error
	if analysis.NeedsVFS {
		err = e.executeTransactional(ctx, bp, result)
	} else {
		err = e.executeDirect(ctx, bp, result)
	}

	result.Duration = time.Since(start)
	if err != nil {
		result.Success = false
		e.logger.Error("blueprint failed", "blueprint", bp.ID, "error", err)
		return result, err
	}

	e.logger.Info("blueprint applied", "blueprint", bp.ID, "files", len(result.FilesWritten), "duration", result.Duration)
	return result, nil
}

// executeDirect applies each action immediately. A failure halts the
// remaining actions; already-applied actions stay on disk.
func (e *Executor) executeDirect(ctx context.Context, bp *forge.Blueprint, result *forge.ExecutionResult) error {
	for i, action := range bp.Actions {
		actionResult, err := e.applyDirect(ctx, bp, i, action)
		result.Actions = append(result.Actions, actionResult)
		if err != nil {
			return err
		}
		if written := writtenPath(action); written != "" {
			result.FilesWritten = append(result.FilesWritten, written)
		}
	}
	return nil
}

func (e *Executor) applyDirect(ctx context.Context, bp *forge.Blueprint, index int, action forge.BlueprintAction) (forge.ActionResult, error) {
	actionResult := forge.ActionResult{Index: index, Type: action.Type, Success: true}

	fail := func(err error) (forge.ActionResult, error) {
		wrapped := forgeerr.NewActionError(bp.ID, index, string(action.Type), err)
		actionResult.Success = false
		actionResult.Error = wrapped.Error()
		return actionResult, wrapped
	}

	switch action.Type {
	case forge.ActionCreateFile:
		if err := e.fs.Save(ctx, action.Path, []byte(action.Content)); err != nil {
			return fail(err)
		}

	case forge.ActionRunCommand:
		cmdResult, err := e.runner.Run(ctx, e.workDir(action.WorkDir), action.Command, action.Args...)
		if cmdResult != nil {
			actionResult.Output = strings.TrimSpace(cmdResult.Stdout)
		}
		if err != nil {
			return fail(err)
		}

	case forge.ActionInstallPackages:
		args := e.pm.InstallArgs(action.Packages, action.Dev)
		cmdResult, err := e.runner.Run(ctx, e.fs.Root(), e.pm.Command(), args...)
		if cmdResult != nil {
			actionResult.Output = strings.TrimSpace(cmdResult.Stdout)
		}
		if err != nil {
			return fail(err)
		}

	case forge.ActionAddScript:
		path := pathOrDefault(action.Path, defaultManifestPath)
		current, _ := e.loadIfExists(ctx, path)
		updated, err := setManifestScript(current, action.Name, action.Script)
		if err != nil {
			return fail(err)
		}
		if err := e.fs.Save(ctx, path, updated); err != nil {
			return fail(err)
		}

	case forge.ActionAddEnvVar:
		path := pathOrDefault(action.Path, defaultEnvPath)
		current, _ := e.loadIfExists(ctx, path)
		updated, err := setEnvVar(current, action.Key, action.Value)
		if err != nil {
			return fail(err)
		}
		if err := e.fs.Save(ctx, path, updated); err != nil {
			return fail(err)
		}

	default:
		return fail(fmt.Errorf("%w: %s", forgeerr.ErrUnsupportedAction, action.Type))
	}

	return actionResult, nil
}

// executeTransactional walks the actions in declared order: file
// actions stage against the overlay, command actions run immediately at
// their position so later file actions observe what they generated on
// disk. A failure at any action discards the overlay so no staged file
// reaches disk; process side effects of commands already run are not
// rolled back, as in direct mode. The overlay flushes only after every
// action succeeded.
func (e *Executor) executeTransactional(ctx context.Context, bp *forge.Blueprint, result *forge.ExecutionResult) error {
	overlay := NewOverlay(e.fs)

	for i, action := range bp.Actions {
		var actionResult forge.ActionResult
		var err error
		if action.Type == forge.ActionRunCommand || action.Type == forge.ActionInstallPackages {
			actionResult, err = e.applyDirect(ctx, bp, i, action)
		} else {
			actionResult, err = e.stage(ctx, overlay, bp, i, action)
		}
		result.Actions = append(result.Actions, actionResult)
		if err != nil {
			overlay.Discard()
			return err
		}
	}

	if err := overlay.Flush(ctx); err != nil {
		return forgeerr.NewActionError(bp.ID, len(bp.Actions)-1, "FLUSH", err)
	}
	result.FilesWritten = overlay.Paths()
	return nil
}

// stage computes an action's new content against the overlay. Later
// actions in the same blueprint observe earlier staged writes.
func (e *Executor) stage(ctx context.Context, overlay *Overlay, bp *forge.Blueprint, index int, action forge.BlueprintAction) (forge.ActionResult, error) {
	actionResult := forge.ActionResult{Index: index, Type: action.Type, Success: true}

	fail := func(err error) (forge.ActionResult, error) {
		wrapped := forgeerr.NewActionError(bp.ID, index, string(action.Type), err)
		actionResult.Success = false
		actionResult.Error = wrapped.Error()
		return actionResult, wrapped
	}

	if !action.Type.Known() {
		return fail(fmt.Errorf("%w: %s", forgeerr.ErrUnsupportedAction, action.Type))
	}

	if action.Type == forge.ActionCreateFile {
		if err := overlay.Write(action.Path, []byte(action.Content)); err != nil {
			return fail(err)
		}
		return actionResult, nil
	}

	path := action.Path
	switch action.Type {
	case forge.ActionAddScript:
		path = pathOrDefault(path, defaultManifestPath)
	case forge.ActionAddEnvVar:
		path = pathOrDefault(path, defaultEnvPath)
	}

	current, exists, err := overlay.Read(ctx, path)
	if err != nil {
		return fail(err)
	}

	var updated []byte
	switch action.Type {
	case forge.ActionAddScript:
		updated, err = setManifestScript(current, action.Name, action.Script)

	case forge.ActionAddEnvVar:
		updated, err = setEnvVar(current, action.Key, action.Value)

	case forge.ActionMergeJSON:
		updated, err = mergeJSON(current, action.Merge)

	case forge.ActionAppendToFile:
		updated = appendContent(current, action.Content)

	case forge.ActionPrependToFile:
		updated = prependContent(current, action.Content)

	case forge.ActionExtendSchema:
		updated = extendSchema(current, action.Content)

	case forge.ActionAddTSImport:
		if !exists {
			return fail(fmt.Errorf("%w: %s", forgeerr.ErrFileNotFound, path))
		}
		updated, err = addTSImport(current, action.ImportClause, action.ImportFrom)

	case forge.ActionWrapConfig:
		if !exists {
			return fail(fmt.Errorf("%w: %s", forgeerr.ErrFileNotFound, path))
		}
		updated, err = wrapConfig(current, action.Wrapper, action.WrapperImport)

	case forge.ActionEnhanceFile:
		if !exists {
			return fail(fmt.Errorf("%w: %s", forgeerr.ErrFileNotFound, path))
		}
		updated, err = enhanceFile(current, action.Transforms)

	default:
		return fail(fmt.Errorf("%w: %s", forgeerr.ErrUnsupportedAction, action.Type))
	}
	if err != nil {
		return fail(err)
	}

	if err := overlay.Write(path, updated); err != nil {
		return fail(err)
	}
	return actionResult, nil
}

func (e *Executor) loadIfExists(ctx context.Context, path string) ([]byte, bool) {
	if !e.fs.Exists(ctx, path) {
		return nil, false
	}
	data, err := e.fs.Load(ctx, path)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (e *Executor) workDir(dir string) string {
	if dir == "" {
		return e.fs.Root()
	}
	full, err := e.fs.SanitizePath(dir)
	if err != nil {
		return e.fs.Root()
	}
	return full
}

func pathOrDefault(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return path
}

// writtenPath reports the project file a direct-mode action wrote, if any
func writtenPath(action forge.BlueprintAction) string {
	switch action.Type {
	case forge.ActionCreateFile:
		return action.Path
	case forge.ActionAddScript:
		return pathOrDefault(action.Path, defaultManifestPath)
	case forge.ActionAddEnvVar:
		return pathOrDefault(action.Path, defaultEnvPath)
	}
	return ""
}
