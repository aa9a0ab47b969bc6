package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"wav2mp3/internal/archive"
	"wav2mp3/internal/codec"
	"wav2mp3/internal/config"
	"wav2mp3/internal/convert"
	"wav2mp3/internal/diagnostics"
	"wav2mp3/internal/domain"
	"wav2mp3/internal/jobs"
	"wav2mp3/internal/resource"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

var wavDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "WAV files",
		Pattern:     "*.wav",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// App wires configuration, the job queue, diagnostics, and UI runtime
// callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Queue       *jobs.Queue
	Diagnostics domain.DiagnosticReport

	assets  fs.FS
	checker *diagnostics.Checker
	events  *jobs.EventBus
	results *resource.Store

	mkdirAll  func(string, os.FileMode) error
	writeFile func(string, []byte, os.FileMode) error

	mu         sync.Mutex
	runtimeCtx context.Context
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded
// frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}

	store := config.NewJSONStore(filepath.Join(homeDir, ".wav2mp3", "settings.json"))
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	newEncoder := codec.NewLameFactory()
	newPackager := archive.NewZipFactory()
	checker := diagnostics.NewChecker(newEncoder, newPackager)
	report := checker.Run(settings)

	events := jobs.NewEventBus(1000)
	results := resource.NewStore()
	queue := jobs.NewQueue(convert.NewPipeline(newEncoder), newPackager, results, events)

	app := &App{
		Settings:    settings,
		Store:       store,
		Queue:       queue,
		Diagnostics: report,
		assets:      assets,
		checker:     checker,
		events:      events,
		results:     results,
		mkdirAll:    os.MkdirAll,
		writeFile:   os.WriteFile,
	}
	events.SetNotify(app.emitEvent)
	return app, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "WAV to MP3 Converter",
		Width:       1080,
		Height:      720,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown: func(ctx context.Context) {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.runtimeCtx = nil
		},
		Bind: []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// RefreshDiagnostics reloads settings and reruns environment checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	report := a.checker.Run(settings)

	a.mu.Lock()
	a.Settings = settings
	a.Diagnostics = report
	a.mu.Unlock()
	return report, nil
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()
	return settings, nil
}

// SaveSettings persists settings, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	if err := a.Store.Save(settings); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	// the store normalizes on save; read back the canonical form
	saved, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("reload settings: %w", err)
	}

	report := a.checker.Run(saved)

	a.mu.Lock()
	a.Settings = saved
	a.Diagnostics = report
	a.mu.Unlock()
	return saved, nil
}

// Bitrates returns the selectable MP3 bit rates.
func (a *App) Bitrates() []int {
	return codec.Bitrates()
}

// PickInputFiles opens a native multi-select dialog for WAV files.
func (a *App) PickInputFiles() ([]string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return nil, err
	}

	paths, err := wailsruntime.OpenMultipleFilesDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select WAV files",
		Filters: wavDialogFilter,
	})
	if err != nil {
		return nil, err
	}

	out := paths[:0]
	for _, path := range paths {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out, nil
}

// PickOutputDirectory opens a native directory picker for MP3 exports.
func (a *App) PickOutputDirectory() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title: "Select output directory",
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// AddFiles submits files to the queue and reports what was accepted.
func (a *App) AddFiles(paths []string) jobs.AddReport {
	return a.Queue.Add(paths)
}

// StartConversion begins working through idle jobs at the configured
// bit rate. Refused while diagnostics report a missing encoder.
func (a *App) StartConversion() error {
	a.mu.Lock()
	blocked := a.Diagnostics.ConversionBlocked
	bitrate := a.Settings.BitrateKbps
	a.mu.Unlock()

	if blocked {
		return fmt.Errorf("conversion is disabled: MP3 encoder unavailable")
	}

	a.Queue.StartAll(bitrate)
	return nil
}

// RemoveJob drops one job from the queue.
func (a *App) RemoveJob(id string) error {
	return a.Queue.Remove(id)
}

// ResetJobs clears the queue and all held results.
func (a *App) ResetJobs() error {
	return a.Queue.Reset()
}

// QueueSnapshot returns a consistent copy of the queue for rendering.
func (a *App) QueueSnapshot() jobs.Snapshot {
	return a.Queue.Snapshot()
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// SaveResult writes one completed job's MP3 into the output directory
// and returns the written path.
func (a *App) SaveResult(jobID string) (string, error) {
	handle, err := a.Queue.Result(jobID)
	if err != nil {
		return "", err
	}
	return a.saveBlob(handle.Name, handle.Bytes())
}

// ExportArchive packages all completed results into one zip, writes it
// into the output directory, and returns the written path.
func (a *App) ExportArchive() (string, error) {
	a.mu.Lock()
	disabled := a.Diagnostics.ExportDisabled
	a.mu.Unlock()
	if disabled {
		return "", fmt.Errorf("bulk export is disabled: archive packager unavailable")
	}

	handle, err := a.Queue.ExportAll()
	if err != nil {
		return "", err
	}
	return a.saveBlob(handle.Name, handle.Bytes())
}

// OpenOutputFolder opens the given path (or configured output dir) in
// the platform file manager.
func (a *App) OpenOutputFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		a.mu.Lock()
		target = a.Settings.OutputDir
		a.mu.Unlock()
	}
	if target == "" {
		return fmt.Errorf("output path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// saveBlob writes named data into the configured output directory.
func (a *App) saveBlob(name string, data []byte) (string, error) {
	a.mu.Lock()
	outputDir := a.Settings.OutputDir
	a.mu.Unlock()
	if strings.TrimSpace(outputDir) == "" {
		return "", fmt.Errorf("output directory is not configured")
	}

	if err := a.mkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	target := filepath.Join(outputDir, filepath.Base(name))
	if err := a.writeFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", filepath.Base(name), err)
	}
	return target, nil
}

// emitEvent pushes a published event into the UI runtime when running.
func (a *App) emitEvent(event jobs.Event) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "job:event", event)
	}
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}

// NewAppForTests wires an App over injected collaborators without
// touching the user's home directory or the Wails runtime.
func NewAppForTests(
	store config.Store,
	queue *jobs.Queue,
	checker *diagnostics.Checker,
	events *jobs.EventBus,
	results *resource.Store,
) (*App, error) {
	settings, err := store.Load()
	if err != nil {
		return nil, err
	}

	app := &App{
		Settings:    settings,
		Store:       store,
		Queue:       queue,
		Diagnostics: checker.Run(settings),
		checker:     checker,
		events:      events,
		results:     results,
		mkdirAll:    os.MkdirAll,
		writeFile:   os.WriteFile,
	}
	events.SetNotify(app.emitEvent)
	return app, nil
}
