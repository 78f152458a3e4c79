package corral

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

// AuthServerStatus is the lifecycle state of the managed auth server.
type AuthServerStatus string

const (
	// AuthServerNotStarted means no spawn was attempted, or the attempt was
	// aborted before a process existed.
	AuthServerNotStarted AuthServerStatus = "not_started"
	// AuthServerStarting means the spawn sequence is in progress.
	AuthServerStarting AuthServerStatus = "starting"
	// AuthServerHealthy means the readiness endpoint answered 200.
	AuthServerHealthy AuthServerStatus = "healthy"
	// AuthServerUnhealthy means the process is (or may be) running but never
	// answered the readiness probe. The spawn is not retracted: the server is
	// often just slow to boot, and validation does not depend on it either way.
	AuthServerUnhealthy AuthServerStatus = "unhealthy"
	// AuthServerStopped is terminal; there is no restart.
	AuthServerStopped AuthServerStatus = "stopped"
)

const (
	authServerScript   = "auth.js"
	authServerDir      = "server"
	healthPollInterval = 100 * time.Millisecond
	healthPollDeadline = 5 * time.Second
	stopGracePeriod    = 3 * time.Second
	// discovery walks at most this many ancestors of the database location
	maxDiscoveryDepth = 10
)

// authServer owns zero-or-one Node auth server subprocess. The validator
// holds the only reference for its entire lifetime and stops it on Close.
// The mutex guards the handle and status; it is not held while waiting out
// the grace period.
type authServer struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	stdout  *lineWriter
	stderr  *lineWriter
	status  AuthServerStatus
	stopped bool

	dbPath      string
	config      Config
	logger      Logger
	interpreter string
}

func newAuthServer(dbPath string, cfg Config, logger Logger) *authServer {
	return &authServer{
		dbPath:      dbPath,
		config:      cfg,
		logger:      logger,
		status:      AuthServerNotStarted,
		interpreter: "node",
	}
}

// Status returns the current lifecycle state.
func (s *authServer) Status() AuthServerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *authServer) setStatus(st AuthServerStatus) {
	s.mu.Lock()
	// Stopped is terminal; a Start racing with Stop must not resurrect it.
	if !s.stopped {
		s.status = st
	}
	s.mu.Unlock()
}

// Start runs the full spawn sequence: script discovery, runtime check,
// spawn, stream relays, readiness poll. Every failure path logs and leaves
// the validator fully usable; Start never returns an error by design.
// The readiness poll blocks the caller for up to five seconds.
func (s *authServer) Start() {
	s.setStatus(AuthServerStarting)

	script := s.findScript()
	if script == "" {
		s.logger.Info("auth server script not found, login/signup endpoints unavailable, session validation still works")
		s.setStatus(AuthServerNotStarted)
		return
	}

	if _, err := exec.LookPath(s.interpreter); err != nil {
		s.logger.Info("%s runtime not found in PATH, skipping auth server spawn", s.interpreter)
		s.setStatus(AuthServerNotStarted)
		return
	}

	port := strconv.Itoa(s.config.AuthPort)

	stdout := &lineWriter{name: "stdout", logger: s.logger}
	stderr := &lineWriter{name: "stderr", logger: s.logger}

	// Handing the writers to exec keeps the stream copying inside cmd.Wait,
	// so waiting can never race a reader on a closing pipe.
	cmd := exec.Command(s.interpreter, script)
	cmd.Env = append(os.Environ(), "AUTH_PORT="+port)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		s.logger.Error("failed to spawn auth server: %v", err)
		s.setStatus(AuthServerNotStarted)
		return
	}

	s.mu.Lock()
	if s.stopped {
		// Lost the race with Stop: don't leave an untracked process behind.
		s.mu.Unlock()
		forceKill(cmd)
		_ = cmd.Wait()
		return
	}
	s.cmd = cmd
	s.stdout = stdout
	s.stderr = stderr
	s.mu.Unlock()

	if s.waitHealthy(port) {
		s.logger.Info("auth server ready on port %s (pid %d)", port, cmd.Process.Pid)
		s.setStatus(AuthServerHealthy)
		return
	}

	// Left running unsupervised on purpose: slow boots are common and there
	// is no readiness re-check contract.
	s.logger.Error("auth server health check failed after %s, it may still be starting", healthPollDeadline)
	s.setStatus(AuthServerUnhealthy)
}

// findScript resolves the auth server entry point. An explicit override must
// name an existing file; otherwise the walk starts next to the database and
// climbs a bounded number of ancestors looking for server/auth.js.
func (s *authServer) findScript() string {
	if p := s.config.AuthServerPath; p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
		s.logger.Error("CORRAL_AUTH_SERVER points at %s but the file does not exist", p)
		return ""
	}

	dir, err := filepath.Abs(s.dbPath)
	if err != nil {
		return ""
	}
	dir = filepath.Dir(dir)

	for i := 0; i < maxDiscoveryDepth; i++ {
		candidate := filepath.Join(dir, authServerDir, authServerScript)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// lineWriter forwards one output stream to the logger line by line for the
// process's entire lifetime, buffering partial writes and dropping empty
// lines. Each stream gets its own writer, written from exec's copy goroutine.
type lineWriter struct {
	name   string
	logger Logger
	buf    bytes.Buffer
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Incomplete line, keep it for the next write.
			w.buf.WriteString(line)
			return len(p), nil
		}
		if line = strings.TrimRight(line, "\r\n"); line != "" {
			w.logger.Info("[auth-server %s] %s", w.name, line)
		}
	}
}

// flush logs whatever partial line the stream ended on. Only safe once the
// process has been waited out.
func (w *lineWriter) flush() {
	if line := strings.TrimRight(w.buf.String(), "\r\n"); line != "" {
		w.logger.Info("[auth-server %s] %s", w.name, line)
	}
	w.buf.Reset()
}

// waitHealthy polls the readiness endpoint every 100ms for up to 5 seconds,
// blocking the calling goroutine. There is no cancellation: the poll always
// runs to success or the deadline.
func (s *authServer) waitHealthy(port string) bool {
	url := fmt.Sprintf("http://localhost:%s/api/auth/ok", port)
	client := &http.Client{Timeout: time.Second}

	backoff := retry.WithMaxDuration(healthPollDeadline, retry.NewConstant(healthPollInterval))
	err := retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		resp, err := client.Get(url)
		if err != nil {
			return retry.RetryableError(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return retry.RetryableError(fmt.Errorf("auth server readiness returned %d", resp.StatusCode))
		}
		return nil
	})

	return err == nil
}

// Stop terminates the tracked subprocess: cooperative signal where the
// platform supports one, a bounded grace period, then exactly one forced
// kill. It is idempotent; calling it with no tracked process is a no-op.
func (s *authServer) Stop() error {
	s.mu.Lock()
	cmd := s.cmd
	stdout, stderr := s.stdout, s.stderr
	s.cmd = nil
	s.stdout = nil
	s.stderr = nil
	s.stopped = true
	s.status = AuthServerStopped
	s.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}

	s.logger.Info("stopping auth server (pid %d)", cmd.Process.Pid)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	if err := signalTerm(cmd); err != nil {
		// No cooperative termination on this platform, or the signal failed.
		forceKill(cmd)
		<-done
	} else {
		select {
		case <-done:
		case <-time.After(stopGracePeriod):
			forceKill(cmd)
			<-done
		}
	}

	stdout.flush()
	stderr.flush()
	return nil
}
