package commands

import (
	"fmt"
	"os"
	"strings"
)

// maxTTYWalkDepth bounds the process-ancestry walk.
const maxTTYWalkDepth = 10

// discoverTTY finds the terminal the user is looking at. Hooks run with
// piped stdio, so we walk up the process tree and return the first ancestor
// fd that points at a terminal device. Returns "" when no terminal is found;
// the daemon then celebrates silently.
func discoverTTY() string {
	pid := os.Getpid()
	for range maxTTYWalkDepth {
		if tty := processTTY(pid); tty != "" {
			return tty
		}
		parent, ok := parentPID(pid)
		if !ok || parent <= 1 {
			break
		}
		pid = parent
	}

	// Last resort: the controlling terminal, when we have one.
	if f, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0); err == nil {
		_ = f.Close()
		return "/dev/tty"
	}
	return ""
}

// processTTY inspects a process's standard fds for a terminal device.
func processTTY(pid int) string {
	for _, fd := range []int{2, 1, 0} {
		target, err := os.Readlink(fmt.Sprintf("/proc/%d/fd/%d", pid, fd))
		if err != nil {
			continue
		}
		if isTerminalPath(target) {
			if _, err := os.Stat(target); err == nil {
				return target
			}
		}
	}
	return ""
}

func isTerminalPath(path string) bool {
	if path == "/dev/tty" {
		return false // the magic device, not a specific terminal
	}
	return strings.HasPrefix(path, "/dev/pts/") || strings.HasPrefix(path, "/dev/tty")
}

// parentPID reads the ppid from /proc/<pid>/stat. The comm field may contain
// spaces and parens, so parse from the last ')'.
func parentPID(pid int) (int, bool) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, false
	}
	s := string(data)
	idx := strings.LastIndexByte(s, ')')
	if idx < 0 || idx+2 >= len(s) {
		return 0, false
	}
	fields := strings.Fields(s[idx+2:])
	if len(fields) < 2 {
		return 0, false
	}
	var ppid int
	if _, err := fmt.Sscanf(fields[1], "%d", &ppid); err != nil {
		return 0, false
	}
	return ppid, true
}
