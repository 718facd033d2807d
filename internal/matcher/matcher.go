// Package matcher links windows of a saved tree to the windows running now.
//
// Window ids are handed out per session, so the only signals that survive a
// restart are the command line that launched a window and its title. Windows
// are grouped by command; inside a group equal titles are linked first and the
// rest are paired off arbitrarily.
package matcher

import (
	"strings"

	"github.com/bryanchriswhite/swayrst/internal/layout"
	"github.com/bryanchriswhite/swayrst/internal/logger"
)

// commandSeparator cannot appear in an argument passed through exec.
const commandSeparator = "\x1f"

// CommandKey is the canonical string for an argument vector.
func CommandKey(argv []string) string {
	return strings.Join(argv, commandSeparator)
}

// Index groups the apps of one tree by launch command.
type Index struct {
	Apps     map[int64]*layout.AppContainer
	Commands map[string][]int64
	// order holds command keys in the order they were first seen
	order []string
}

// NewIndex builds the index of tree. Duplicate ids are logged and the last
// occurrence wins.
func NewIndex(tree *layout.Tree) *Index {
	log := logger.WithComponent("matcher")

	idx := &Index{
		Apps:     make(map[int64]*layout.AppContainer),
		Commands: make(map[string][]int64),
	}

	var ids []int64
	for _, app := range tree.Apps() {
		if _, dup := idx.Apps[app.ID]; dup {
			log.Warn().Int64("id", app.ID).Msg("Duplicate id found")
		} else {
			ids = append(ids, app.ID)
		}
		idx.Apps[app.ID] = app
	}

	for _, id := range ids {
		key := CommandKey(idx.Apps[id].Command)
		if _, ok := idx.Commands[key]; !ok {
			idx.order = append(idx.order, key)
		}
		idx.Commands[key] = append(idx.Commands[key], id)
	}

	return idx
}

// Keys returns the command keys in first-seen order.
func (idx *Index) Keys() []string {
	return append([]string(nil), idx.order...)
}

// MissingApp is a command with fewer running instances than saved ones.
type MissingApp struct {
	Amount  int      `json:"amount"`
	Command []string `json:"cmd"`
}

// Missing lists, per command of old, how many instances are not running in cur.
func Missing(old, cur *Index) []MissingApp {
	var missing []MissingApp
	for _, key := range old.order {
		oldIDs := old.Commands[key]
		amount := len(oldIDs) - len(cur.Commands[key])
		if amount <= 0 {
			continue
		}
		missing = append(missing, MissingApp{
			Amount:  amount,
			Command: old.Apps[oldIDs[0]].Command,
		})
	}
	return missing
}

// Mapping links saved window ids to live ones.
type Mapping map[int64]int64

// Resolve returns the live id for a saved id.
func (m Mapping) Resolve(oldID int64) (int64, bool) {
	id, ok := m[oldID]
	return id, ok
}

// Map links the apps of old to those of cur. Ids that have no partner are
// left out of the mapping.
func Map(old, cur *Index) Mapping {
	mapping := make(Mapping)

	for _, key := range old.order {
		newIDs, ok := cur.Commands[key]
		if !ok {
			continue
		}
		remaining := append([]int64(nil), newIDs...)
		oldIDs := old.Commands[key]
		matched := make(map[int64]bool, len(oldIDs))

		for _, oldID := range oldIDs {
			title := old.Apps[oldID].Title
			for i, newID := range remaining {
				if cur.Apps[newID].Title == title {
					mapping[oldID] = newID
					matched[oldID] = true
					remaining = append(remaining[:i], remaining[i+1:]...)
					break
				}
			}
		}

		for _, oldID := range oldIDs {
			if matched[oldID] || len(remaining) == 0 {
				continue
			}
			mapping[oldID] = remaining[len(remaining)-1]
			remaining = remaining[:len(remaining)-1]
		}
	}

	return mapping
}
