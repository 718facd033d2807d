package profile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/bryanchriswhite/swayrst/internal/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *layout.Tree {
	one := 1
	return &layout.Tree{
		Version: layout.CurrentVersion,
		Outputs: []layout.Output{{
			ID:   2,
			Name: "eDP-1",
			Workspaces: []layout.Workspace{{
				ID:     3,
				Name:   "1",
				Number: &one,
				Layout: layout.LayoutSplitH,
				Containers: []layout.Node{
					&layout.AppContainer{ID: 4, Command: []string{"foot"}, Width: 10, Height: 20, Title: "foot"},
					&layout.Container{ID: 5, Layout: layout.LayoutStacked, SubContainers: []layout.Node{
						&layout.AppContainer{ID: 6, Command: []string{"emacs", "--daemon"}, Width: 1, Height: 2},
					}},
				},
				FloatingContainers: []layout.Node{},
			}},
		}},
	}
}

func TestStore_SaveLoad(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "profiles"))
	tree := sampleTree()

	require.NoError(t, store.Save("work", tree))
	assert.True(t, store.Exists("work"))

	loaded, err := store.Load("work")
	require.NoError(t, err)
	assert.Equal(t, tree, loaded)
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Load("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_InvalidNames(t *testing.T) {
	store := NewStore(t.TempDir())

	for _, name := range []string{"", "..", "a/b"} {
		assert.ErrorIs(t, store.Save(name, sampleTree()), ErrInvalidName)
		_, err := store.Load(name)
		assert.ErrorIs(t, err, ErrInvalidName)
	}
}

func TestStore_UpgradesVersionOne(t *testing.T) {
	dir := t.TempDir()
	legacy := `{"outputs": [{"id": 2, "name": "eDP-1", "workspaces": [{
		"id": 3, "name": "1", "number": 1, "layout": "splith",
		"containers": [{"id": 4, "command": ["foot"], "width": 10, "height": 20}],
		"floating_containers": []
	}]}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.json"), []byte(legacy), 0644))

	store := NewStore(dir)
	tree, err := store.Load("old")
	require.NoError(t, err)
	assert.Equal(t, layout.CurrentVersion, tree.Version)
	assert.Equal(t, &layout.AppContainer{ID: 4, Command: []string{"foot"}, Width: 10, Height: 20},
		tree.Outputs[0].Workspaces[0].Containers[0])

	data, err := os.ReadFile(filepath.Join(dir, "old.json"))
	require.NoError(t, err)
	var rewritten struct {
		Version int `json:"version"`
	}
	require.NoError(t, json.Unmarshal(data, &rewritten))
	assert.Equal(t, layout.CurrentVersion, rewritten.Version)
}

func TestStore_ListDelete(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	names, err := NewStore(filepath.Join(dir, "missing")).List()
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.Save("b", sampleTree()))
	require.NoError(t, store.Save("a", sampleTree()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	names, err = store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	require.NoError(t, store.Delete("a"))
	assert.ErrorIs(t, store.Delete("a"), ErrNotFound)

	names, err = store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names)
}
