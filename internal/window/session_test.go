package window

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	msgType uint32
	body    []byte
}

// fakeWM answers IPC requests on the server end of a pipe.
func fakeWM(t *testing.T, conn net.Conn, handle func(msgType uint32, payload []byte) []frame) {
	t.Helper()
	go func() {
		defer conn.Close()
		header := make([]byte, 14)
		for {
			if _, err := io.ReadFull(conn, header); err != nil {
				return
			}
			size := binary.NativeEndian.Uint32(header[6:])
			msgType := binary.NativeEndian.Uint32(header[10:])
			payload := make([]byte, size)
			if _, err := io.ReadFull(conn, payload); err != nil {
				return
			}
			for _, f := range handle(msgType, payload) {
				out := make([]byte, 14, 14+len(f.body))
				copy(out, "i3-ipc")
				binary.NativeEndian.PutUint32(out[6:], uint32(len(f.body)))
				binary.NativeEndian.PutUint32(out[10:], f.msgType)
				if _, err := conn.Write(append(out, f.body...)); err != nil {
					return
				}
			}
		}
	}()
}

const treeJSON = `{"id": 1, "type": "root", "name": "root", "nodes": [
	{"id": 2, "type": "output", "name": "eDP-1", "nodes": [
		{"id": 3, "type": "workspace", "name": "1", "num": 1, "layout": "splith", "nodes": [
			{"id": 4, "type": "con", "name": "foot", "pid": 42, "window_rect": {"x": 0, "y": 0, "width": 640, "height": 480}, "nodes": [], "floating_nodes": []}
		], "floating_nodes": []}
	], "floating_nodes": []}
], "floating_nodes": []}`

func TestIPCSession_SnapshotAndFind(t *testing.T) {
	client, server := net.Pipe()
	fakeWM(t, server, func(msgType uint32, _ []byte) []frame {
		return []frame{{msgType, []byte(treeJSON)}}
	})

	s := NewIPCSession(client, "pipe")
	defer s.Close()

	root, err := s.Snapshot()
	require.NoError(t, err)
	require.Len(t, root.Nodes, 1)

	win, err := s.FindWindow(4)
	require.NoError(t, err)
	require.NotNil(t, win)
	assert.Equal(t, 42, win.PID)
	assert.Equal(t, 640, win.WindowRect.Width)

	missing, err := s.FindWindow(99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIPCSession_Execute(t *testing.T) {
	client, server := net.Pipe()
	var received []string
	fakeWM(t, server, func(msgType uint32, payload []byte) []frame {
		received = append(received, string(payload))
		results := []commandResult{{Success: true}}
		if string(payload) == "[con_id=4] resize grow width 10 px" {
			results = []commandResult{{Success: false, Error: "Cannot resize"}}
		}
		body, _ := json.Marshal(results)
		return []frame{{msgRunCommand, body}}
	})

	s := NewIPCSession(client, "pipe")
	defer s.Close()

	require.NoError(t, s.Execute("workspace number 1", nil))

	err := s.Execute("resize grow width 10 px", &Node{ID: 4})
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "Cannot resize", cmdErr.Message)

	assert.Equal(t, []string{"workspace number 1", "[con_id=4] resize grow width 10 px"}, received)
}

func TestIPCSession_SkipsEvents(t *testing.T) {
	client, server := net.Pipe()
	fakeWM(t, server, func(msgType uint32, _ []byte) []frame {
		return []frame{
			{1<<31 | 3, []byte(`{"change": "focus"}`)},
			{msgType, []byte(`{"major": 1, "minor": 9, "human_readable": "sway version 1.9"}`)},
		}
	})

	s := NewIPCSession(client, "pipe")
	defer s.Close()

	v, err := s.Version()
	require.NoError(t, err)
	assert.Equal(t, 1, v.Major)
	assert.Equal(t, "sway version 1.9", v.HumanReadable)
}

func TestNode_FindByIDFloating(t *testing.T) {
	root := &Node{ID: 1, Nodes: []*Node{
		{ID: 2, FloatingNodes: []*Node{{ID: 5, Name: "float"}}},
	}}
	assert.Equal(t, "float", root.FindByID(5).Name)
	assert.Nil(t, root.FindByID(6))
}

func TestTargeted(t *testing.T) {
	assert.Equal(t, "focus", Targeted("focus", nil))
	assert.Equal(t, "[con_id=12] focus", Targeted("focus", &Node{ID: 12}))
}
