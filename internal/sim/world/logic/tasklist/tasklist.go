// Package tasklist keeps the per-player excavation tags. Navigation only ever
// asks whether a tile is tagged and asks for new tags; workers remove them.
package tasklist

import (
	"errors"
	"fmt"
	"sort"

	"dungeonnav.ai/internal/sim/world/kernel/coord"
)

var (
	ErrAlreadyTagged = errors.New("tile already tagged")
	ErrListFull      = errors.New("task list full")
)

// List is what navigation code needs from the task list.
type List interface {
	Tagged(player int, t coord.Tile) bool
	Tag(player int, t coord.Tile) error
}

type key struct {
	player int
	tile   coord.Tile
}

// Task is one tagged tile.
type Task struct {
	Player int        `json:"player"`
	Tile   coord.Tile `json:"tile"`
	// Tick the tag was placed.
	Tick uint64 `json:"tick"`
}

// Tasks is the in-memory List. Lookups go through a map; anything that
// leaves the package is sorted first.
type Tasks struct {
	Limit int

	tick  uint64
	items map[key]Task
}

func New(limit int) *Tasks {
	return &Tasks{Limit: limit, items: map[key]Task{}}
}

// SetTick stamps tags placed from now on.
func (l *Tasks) SetTick(tick uint64) { l.tick = tick }

func (l *Tasks) Tagged(player int, t coord.Tile) bool {
	_, ok := l.items[key{player, t}]
	return ok
}

func (l *Tasks) Tag(player int, t coord.Tile) error {
	k := key{player, t}
	if _, ok := l.items[k]; ok {
		return fmt.Errorf("tag %d %v: %w", player, t, ErrAlreadyTagged)
	}
	if l.Limit > 0 && len(l.items) >= l.Limit {
		return fmt.Errorf("tag %d %v: %w", player, t, ErrListFull)
	}
	l.items[k] = Task{Player: player, Tile: t, Tick: l.tick}
	return nil
}

// Untag removes a tag and reports whether it was present.
func (l *Tasks) Untag(player int, t coord.Tile) bool {
	k := key{player, t}
	if _, ok := l.items[k]; !ok {
		return false
	}
	delete(l.items, k)
	return true
}

// UntagTile drops the tile for every player, e.g. once it has been dug out.
func (l *Tasks) UntagTile(t coord.Tile) {
	for k := range l.items {
		if k.tile == t {
			delete(l.items, k)
		}
	}
}

func (l *Tasks) Len() int { return len(l.items) }

// Sorted returns all tasks ordered by player, then tile row-major.
func (l *Tasks) Sorted() []Task {
	out := make([]Task, 0, len(l.items))
	for _, it := range l.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Player != out[j].Player {
			return out[i].Player < out[j].Player
		}
		return out[i].Tile.Less(out[j].Tile)
	})
	return out
}

// Restore replaces the contents, e.g. when loading a snapshot.
func (l *Tasks) Restore(tasks []Task) {
	l.items = make(map[key]Task, len(tasks))
	for _, it := range tasks {
		l.items[key{it.Player, it.Tile}] = it
	}
}
