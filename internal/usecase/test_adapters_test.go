package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testFileSystem struct{}

func newTestFileSystem() *testFileSystem {
	return &testFileSystem{}
}

func safeFileMode(perm int, fallback fs.FileMode) fs.FileMode {
	if perm <= 0 || perm > 0o777 {
		return fallback
	}
	// #nosec G115 -- perm validated to be within safe range.
	return fs.FileMode(perm)
}

func (a *testFileSystem) ReadFile(_ context.Context, path string) ([]byte, error) {
	// #nosec G304 -- test paths are controlled by the test harness.
	return os.ReadFile(path)
}

func (a *testFileSystem) WriteFile(_ context.Context, path string, data []byte, perm int) error {
	return os.WriteFile(path, data, safeFileMode(perm, 0o644))
}

func (a *testFileSystem) CreateDir(_ context.Context, path string, perm int) error {
	return os.MkdirAll(path, safeFileMode(perm, 0o755))
}

func (a *testFileSystem) Remove(_ context.Context, path string) error {
	return os.Remove(path)
}

func (a *testFileSystem) Stat(_ context.Context, path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (a *testFileSystem) Rename(_ context.Context, src, dst string) error {
	return os.Rename(src, dst)
}

func (a *testFileSystem) Join(elements ...string) string { return filepath.Join(elements...) }
func (a *testFileSystem) Dir(path string) string        { return filepath.Dir(path) }
func (a *testFileSystem) IsAbs(path string) bool        { return filepath.IsAbs(path) }
func (a *testFileSystem) PathSeparator() byte           { return os.PathSeparator }
func (a *testFileSystem) IsNotExist(err error) bool     { return errors.Is(err, fs.ErrNotExist) }

// fakeConfigPort keeps configs in memory but also touches the file so that
// Stat-based existence checks behave.
type fakeConfigPort struct {
	fs        FileSystemPort
	data      map[string]ConfigFile
	saveCalls int
	loadErr   error
}

func newFakeConfigPort(fs FileSystemPort) *fakeConfigPort {
	return &fakeConfigPort{fs: fs, data: map[string]ConfigFile{}}
}

func (f *fakeConfigPort) Load(_ context.Context, path string) (ConfigFile, error) {
	if f.loadErr != nil {
		return ConfigFile{}, f.loadErr
	}
	if cfg, ok := f.data[path]; ok {
		return cfg, nil
	}
	return DefaultConfigFile(), nil
}

func (f *fakeConfigPort) Save(ctx context.Context, path string, cfg ConfigFile) error {
	f.saveCalls++
	f.data[path] = cfg
	return f.fs.WriteFile(ctx, path, []byte("# saved\n"), 0o600)
}

// fakeServerConfig writes numbered config files into dir and records the
// documents it was given.
type fakeServerConfig struct {
	mu   sync.Mutex
	dir  string
	docs []ConfigDocument
	err  error
}

func (f *fakeServerConfig) Build(_ context.Context, doc ConfigDocument) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.docs = append(f.docs, doc)
	path := filepath.Join(f.dir, fmt.Sprintf("terrasup-%d.cfg", len(f.docs)))
	if err := os.WriteFile(path, []byte("fake\n"), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// fakeServer is a scriptable ServerProcess. Sending a command listed in
// exitOn stops it with the mapped exit code.
type fakeServer struct {
	mu         sync.Mutex
	pid        int
	configPath string
	state      ProcessState
	exitCode   int
	sent       []string
	output     []string
	exitOn     map[string]int
	ignoreExit bool
	released   int
	done       chan struct{}
}

func newFakeServer(pid int, configPath string) *fakeServer {
	return &fakeServer{
		pid:        pid,
		configPath: configPath,
		state:      StateRunning,
		exitCode:   -1,
		exitOn:     map[string]int{"exit": 0, "exit-nosave": 0},
		done:       make(chan struct{}),
	}
}

func (f *fakeServer) emit(lines ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.output = append(f.output, lines...)
}

// stop simulates the process exiting on its own.
func (f *fakeServer) stop(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopLocked(code)
}

func (f *fakeServer) stopLocked(code int) {
	if f.state == StateStopped {
		return
	}
	f.state = StateStopped
	f.exitCode = code
	close(f.done)
}

func (f *fakeServer) PID() int           { return f.pid }
func (f *fakeServer) ConfigPath() string { return f.configPath }

func (f *fakeServer) State() ProcessState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeServer) Running() bool {
	return f.State() != StateStopped
}

func (f *fakeServer) Send(line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateStopped {
		return fmt.Errorf("send %q: %w", line, ErrProcessExited)
	}
	f.sent = append(f.sent, line)
	if code, ok := f.exitOn[line]; ok && !f.ignoreExit {
		f.output = append(f.output, "Saving world...")
		f.stopLocked(code)
	}
	return nil
}

func (f *fakeServer) Exit() ExitOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateStopped {
		return ExitAlreadyStopped
	}
	f.sent = append(f.sent, "exit")
	if f.ignoreExit {
		f.state = StateKilled
		f.stopLocked(-1)
		return ExitForced
	}
	f.stopLocked(0)
	return ExitGraceful
}

func (f *fakeServer) Wait() error {
	<-f.done
	return nil
}

func (f *fakeServer) ExitCode() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exitCode
}

func (f *fakeServer) Output(maxLines int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	start := 0
	if maxLines > 0 && maxLines < len(f.output) {
		start = len(f.output) - maxLines
	}
	return append([]string(nil), f.output[start:]...)
}

func (f *fakeServer) OutputSince(offset int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if offset >= len(f.output) {
		return nil
	}
	return append([]string(nil), f.output[offset:]...)
}

func (f *fakeServer) CollectorFinished() bool {
	return !f.Running()
}

func (f *fakeServer) Release() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
	return nil
}

func (f *fakeServer) sentCommands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeServer) releaseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

type fakeProcessPort struct {
	mu       sync.Mutex
	requests []SpawnRequest
	servers  []*fakeServer
	err      error
	// prepare runs on every new server before it is returned.
	prepare func(*fakeServer)
}

func (f *fakeProcessPort) Spawn(_ context.Context, req SpawnRequest) (ServerProcess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	srv := newFakeServer(1000+len(f.servers), req.ConfigPath)
	if f.prepare != nil {
		f.prepare(srv)
	}
	f.servers = append(f.servers, srv)
	return srv, nil
}

func (f *fakeProcessPort) spawned() []*fakeServer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeServer(nil), f.servers...)
}

type fakeLock struct {
	mu         sync.Mutex
	acquireErr error
	held       map[string]LockInfo
	released   []string
}

func newFakeLock() *fakeLock {
	return &fakeLock{held: map[string]LockInfo{}}
}

func (f *fakeLock) AcquireLock(_ context.Context, path string, info LockInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.acquireErr != nil {
		return f.acquireErr
	}
	if _, ok := f.held[path]; ok {
		return errors.New("lock is held")
	}
	f.held[path] = info
	return nil
}

func (f *fakeLock) ReleaseLock(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held, path)
	f.released = append(f.released, path)
	return nil
}

func (f *fakeLock) IsLocked(_ context.Context, path string) (bool, LockInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.held[path]
	return ok, info, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) Send(_ context.Context, title, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, title+": "+message)
	return nil
}

func (f *fakeNotifier) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

// supervisorEnv bundles fakes around a temp data dir with a launch descriptor.
type supervisorEnv struct {
	root     string
	deps     *Dependencies
	fs       *testFileSystem
	config   *fakeServerConfig
	process  *fakeProcessPort
	lock     *fakeLock
	notifier *fakeNotifier
	launch   LaunchConfig
}

func newSupervisorEnv(t *testing.T) *supervisorEnv {
	t.Helper()
	root := t.TempDir()
	fsys := newTestFileSystem()
	descriptor := filepath.Join(root, "launch.path")
	if err := os.WriteFile(descriptor, []byte("  /opt/terraria/TerrariaServer  \nignored second line\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfgDir := filepath.Join(root, "cfg")
	if err := os.MkdirAll(cfgDir, 0o750); err != nil {
		t.Fatal(err)
	}
	env := &supervisorEnv{
		root:     root,
		fs:       fsys,
		config:   &fakeServerConfig{dir: cfgDir},
		process:  &fakeProcessPort{},
		lock:     newFakeLock(),
		notifier: &fakeNotifier{},
		launch: LaunchConfig{
			DescriptorPath: descriptor,
			DataDir:        filepath.Join(root, "data"),
			WorldName:      "TestWorld",
			AutoCreate:     1,
		},
	}
	env.deps = &Dependencies{
		FileSystem:   fsys,
		Config:       newFakeConfigPort(fsys),
		ServerConfig: env.config,
		Process:      env.process,
		Lock:         env.lock,
		Notification: env.notifier,
	}
	return env
}
