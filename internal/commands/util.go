package commands

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/dotcommander/kudos/internal/app"
	"github.com/dotcommander/kudos/internal/models"
	"github.com/dotcommander/kudos/internal/output"
)

// connectTimeout bounds dialing the daemon socket.
const connectTimeout = 500 * time.Millisecond

// autostartWait is how long a producer waits for a freshly spawned daemon
// to bind its socket.
const autostartWait = time.Second

type printedError struct {
	err error
}

func (e printedError) Error() string {
	// Intentionally hide the original error: the JSON error response is the output.
	return "error already printed"
}

// cmdErr prints the error envelope and wraps the error so root.Execute does
// not log it a second time.
func cmdErr(err error) error {
	if err == nil {
		return nil
	}
	if printErr := output.PrintError(err); printErr != nil {
		return err
	}
	return printedError{err: err}
}

// sendLine delivers one newline-terminated message to the daemon socket.
func sendLine(socketPath string, line []byte) error {
	conn, err := net.DialTimeout("unix", socketPath, connectTimeout)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	_ = conn.SetWriteDeadline(time.Now().Add(connectTimeout))
	_, err = conn.Write(append(line, '\n'))
	return err
}

// queryDaemon sends a command and decodes the reply envelope.
func queryDaemon(socketPath, cmd string) (json.RawMessage, error) {
	conn, err := net.DialTimeout("unix", socketPath, connectTimeout)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))
	if _, err := fmt.Fprintf(conn, `{"cmd":%q}`+"\n", cmd); err != nil {
		return nil, err
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	var resp struct {
		OK   bool            `json:"ok"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse daemon reply: %w", err)
	}
	if !resp.OK {
		return nil, errors.New("daemon refused command")
	}
	return resp.Data, nil
}

// sendEvent delivers an event, starting the daemon first when it is not
// running. Failure to start is not fatal: the event is simply lost, matching
// the fire-and-forget contract.
func sendEvent(e models.Event) error {
	socketPath, err := app.SocketPath()
	if err != nil {
		return err
	}

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}

	if err := sendLine(socketPath, b); err == nil {
		return nil
	}

	if err := autostartDaemon(); err != nil {
		slog.Default().Warn("daemon autostart failed", "err", err)
		return nil
	}
	if err := waitForSocket(socketPath, autostartWait); err != nil {
		return nil
	}
	if err := sendLine(socketPath, b); err != nil {
		slog.Default().Warn("event delivery failed", "err", err)
	}
	return nil
}

// autostartDaemon spawns `kudos daemon` in its own session, detached from
// our stdio and signals.
func autostartDaemon() error {
	exe, err := os.Executable()
	if err != nil {
		exe = "kudos"
	}
	cmd := exec.Command(exe, "daemon") //nolint:gosec // G204: our own binary
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// waitForSocket polls until the socket accepts connections or the deadline
// passes.
func waitForSocket(socketPath string, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("unix", socketPath, connectTimeout)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(25 * time.Millisecond)
	}
	return fmt.Errorf("socket %s not ready after %s", socketPath, wait)
}
