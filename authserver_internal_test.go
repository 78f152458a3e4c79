package corral

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordLogger captures formatted log lines for assertions.
type recordLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordLogger) logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *recordLogger) Debug(format string, args ...any) { l.logf(format, args...) }
func (l *recordLogger) Info(format string, args ...any)  { l.logf(format, args...) }
func (l *recordLogger) Error(format string, args ...any) { l.logf(format, args...) }

func (l *recordLogger) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

func writeScript(t *testing.T, dir string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	script := filepath.Join(dir, authServerScript)
	require.NoError(t, os.WriteFile(script, []byte("// stub\n"), 0o644))
	return script
}

func TestFindScriptUsesExplicitOverride(t *testing.T) {
	script := writeScript(t, t.TempDir())

	s := newAuthServer("/tmp/any.db", Config{AuthServerPath: script, AuthPort: DefaultAuthPort}, defLogger{})
	assert.Equal(t, script, s.findScript())
}

func TestFindScriptRejectsMissingOverride(t *testing.T) {
	// An explicit override that doesn't exist aborts discovery entirely; the
	// ancestor walk would be a surprise when the caller named a path.
	root := t.TempDir()
	writeScript(t, filepath.Join(root, authServerDir))

	s := newAuthServer(filepath.Join(root, "auth.db"), Config{
		AuthServerPath: filepath.Join(root, "missing.js"),
		AuthPort:       DefaultAuthPort,
	}, defLogger{})

	assert.Equal(t, "", s.findScript())
}

func TestFindScriptWalksAncestors(t *testing.T) {
	root := t.TempDir()
	script := writeScript(t, filepath.Join(root, authServerDir))
	dbPath := filepath.Join(root, "app", "data", "auth.db")
	require.NoError(t, os.MkdirAll(filepath.Dir(dbPath), 0o755))

	s := newAuthServer(dbPath, Config{AuthPort: DefaultAuthPort}, defLogger{})
	assert.Equal(t, script, s.findScript())
}

func TestFindScriptNotFound(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "auth.db")

	s := newAuthServer(dbPath, Config{AuthPort: DefaultAuthPort}, defLogger{})
	assert.Equal(t, "", s.findScript())
}

func TestAuthServerInitialStatus(t *testing.T) {
	s := newAuthServer("/tmp/any.db", Config{AuthPort: DefaultAuthPort}, defLogger{})
	assert.Equal(t, AuthServerNotStarted, s.Status())
}

func TestAuthServerStartAbortsWithoutScript(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "auth.db")

	s := newAuthServer(dbPath, Config{AuthPort: DefaultAuthPort}, defLogger{})
	s.Start()

	assert.Equal(t, AuthServerNotStarted, s.Status())
	assert.NoError(t, s.Stop())
}

func TestLineWriterBuffersPartialLines(t *testing.T) {
	logger := &recordLogger{}
	w := &lineWriter{name: "stdout", logger: logger}

	_, err := w.Write([]byte("hello "))
	require.NoError(t, err)
	assert.Empty(t, logger.all(), "incomplete lines must stay buffered")

	_, err = w.Write([]byte("world\nsecond\r\n\ntrail"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"[auth-server stdout] hello world",
		"[auth-server stdout] second",
	}, logger.all(), "empty lines are dropped")

	w.flush()
	assert.Equal(t, "[auth-server stdout] trail", logger.all()[2])
}

func TestAuthServerStopIsIdempotent(t *testing.T) {
	s := newAuthServer("/tmp/any.db", Config{AuthPort: DefaultAuthPort}, defLogger{})

	assert.NoError(t, s.Stop())
	assert.Equal(t, AuthServerStopped, s.Status())
	assert.NoError(t, s.Stop())
	assert.Equal(t, AuthServerStopped, s.Status())
}
