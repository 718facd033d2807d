package window

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/bryanchriswhite/swayrst/internal/logger"
)

// Session is a connection to a window manager speaking the i3 IPC protocol.
type Session interface {
	// Snapshot returns the current layout tree
	Snapshot() (*Node, error)

	// Execute runs a command, targeted at the given window when target is
	// not nil and at the session otherwise. A rejected command yields a
	// *CommandError.
	Execute(command string, target *Node) error

	// FindWindow looks the node up in a fresh snapshot. It returns nil and
	// no error when the node does not exist.
	FindWindow(id int64) (*Node, error)
}

// CommandError is returned when the window manager rejects a command.
type CommandError struct {
	Command string
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q failed: %s", e.Command, e.Message)
}

// IPC message types
const (
	msgRunCommand uint32 = 0
	msgGetTree    uint32 = 4
	msgGetVersion uint32 = 7
)

var ipcMagic = []byte("i3-ipc")

// Version is the reply to GET_VERSION.
type Version struct {
	Major                int    `json:"major"`
	Minor                int    `json:"minor"`
	Patch                int    `json:"patch"`
	HumanReadable        string `json:"human_readable"`
	LoadedConfigFileName string `json:"loaded_config_file_name"`
}

type commandResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// IPCSession implements Session over the window manager's unix socket.
type IPCSession struct {
	conn net.Conn
	path string
	mu   sync.Mutex
}

// Dial connects to the IPC socket at path. An empty path is resolved with
// SocketPath.
func Dial(path string) (*IPCSession, error) {
	if path == "" {
		var err error
		path, err = SocketPath()
		if err != nil {
			return nil, err
		}
	}

	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IPC socket %s: %w", path, err)
	}

	logger.WithComponent("ipc").Debug().Str("socket", path).Msg("Connected to window manager")
	return NewIPCSession(conn, path), nil
}

// NewIPCSession wraps an established connection.
func NewIPCSession(conn net.Conn, path string) *IPCSession {
	return &IPCSession{conn: conn, path: path}
}

// Close closes the socket
func (s *IPCSession) Close() error {
	return s.conn.Close()
}

// SocketPath returns the path the session is connected to
func (s *IPCSession) SocketPath() string {
	return s.path
}

// roundTrip sends one message and reads its reply. Replies arrive in
// request order, so holding the lock for both halves pairs them correctly.
func (s *IPCSession) roundTrip(msgType uint32, payload []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	header := make([]byte, len(ipcMagic)+8)
	copy(header, ipcMagic)
	binary.NativeEndian.PutUint32(header[len(ipcMagic):], uint32(len(payload)))
	binary.NativeEndian.PutUint32(header[len(ipcMagic)+4:], msgType)

	if _, err := s.conn.Write(append(header, payload...)); err != nil {
		return nil, fmt.Errorf("failed to write IPC message: %w", err)
	}

	for {
		if _, err := io.ReadFull(s.conn, header); err != nil {
			return nil, fmt.Errorf("failed to read IPC header: %w", err)
		}
		if string(header[:len(ipcMagic)]) != string(ipcMagic) {
			return nil, errors.New("invalid IPC magic in reply")
		}
		size := binary.NativeEndian.Uint32(header[len(ipcMagic):])
		replyType := binary.NativeEndian.Uint32(header[len(ipcMagic)+4:])

		body := make([]byte, size)
		if _, err := io.ReadFull(s.conn, body); err != nil {
			return nil, fmt.Errorf("failed to read IPC payload: %w", err)
		}

		// Events have the high bit set; this session never subscribes but
		// skip them rather than mistaking one for a reply.
		if replyType&(1<<31) != 0 {
			continue
		}
		if replyType != msgType {
			return nil, fmt.Errorf("unexpected IPC reply type %d for request %d", replyType, msgType)
		}
		return body, nil
	}
}

// Snapshot returns the current layout tree
func (s *IPCSession) Snapshot() (*Node, error) {
	body, err := s.roundTrip(msgGetTree, nil)
	if err != nil {
		return nil, err
	}

	var root Node
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("failed to parse tree: %w", err)
	}
	return &root, nil
}

// FindWindow looks the node up in a fresh snapshot
func (s *IPCSession) FindWindow(id int64) (*Node, error) {
	root, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return root.FindByID(id), nil
}

// Execute runs a command against the target window or the session
func (s *IPCSession) Execute(command string, target *Node) error {
	full := Targeted(command, target)

	logger.WithComponent("ipc").Debug().Str("command", full).Msg("Executing command")

	body, err := s.roundTrip(msgRunCommand, []byte(full))
	if err != nil {
		return err
	}

	var results []commandResult
	if err := json.Unmarshal(body, &results); err != nil {
		return fmt.Errorf("failed to parse command reply: %w", err)
	}

	var failures []string
	for _, r := range results {
		if !r.Success {
			failures = append(failures, r.Error)
		}
	}
	if len(failures) > 0 {
		return &CommandError{Command: full, Message: strings.Join(failures, "; ")}
	}
	return nil
}

// Version queries the window manager version
func (s *IPCSession) Version() (*Version, error) {
	body, err := s.roundTrip(msgGetVersion, nil)
	if err != nil {
		return nil, err
	}

	var v Version
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("failed to parse version: %w", err)
	}
	return &v, nil
}

// Targeted prefixes command with the criteria selecting target.
func Targeted(command string, target *Node) string {
	if target == nil {
		return command
	}
	return fmt.Sprintf("[con_id=%d] %s", target.ID, command)
}
