package classify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vanderheijden86/scatterclass/pkg/debug"
	"github.com/vanderheijden86/scatterclass/pkg/model"
)

// RenameNode sets the display name of a node. Manual categories are renamed
// in place; band names are stored against the band's boundary key so they
// come back whenever that exact band exists.
func (s *Session) RenameNode(key, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := parseManualKey(key); ok {
		return s.assigner.Rename(id, name)
	}
	for _, band := range s.bander.Bands() {
		if band.Key() == key {
			s.order.SetName(key, name)
			debug.Log("rename band %s -> %q", key, name)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownNode, key)
}

// MoveUp moves a point one place earlier inside its category.
func (s *Session) MoveUp(pointID int64) error {
	return s.shift(pointID, -1)
}

// MoveDown moves a point one place later inside its category.
func (s *Session) MoveDown(pointID int64) error {
	return s.shift(pointID, +1)
}

func (s *Session) shift(pointID int64, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree := s.tree()
	key, ok := tree.NodeOf(pointID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPoint, pointID)
	}
	node, _ := tree.Find(key)
	from := indexOf(node.PointIDs(), pointID)
	return s.moveWithin(node, pointID, from+delta)
}

// MoveTo moves a point to position at inside the node identified by key.
// The point must already belong to that node; use Drop to cross nodes.
func (s *Session) MoveTo(key string, pointID int64, at int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.tree().Find(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, key)
	}
	if indexOf(node.PointIDs(), pointID) < 0 {
		return fmt.Errorf("%w: %d not in %s", ErrUnknownPoint, pointID, key)
	}
	return s.moveWithin(node, pointID, at)
}

func (s *Session) moveWithin(node model.CategoryNode, pointID int64, at int) error {
	ids := node.PointIDs()
	at = clamp(at, 0, len(ids)-1)
	if node.IsManual {
		id, _ := parseManualKey(node.Key)
		return s.assigner.MoveMember(id, pointID, at)
	}
	from := indexOf(ids, pointID)
	s.order.SetBandOrder(node.Key, moveID(ids, from, at))
	return nil
}

// Drop handles a drag of pointID onto the node identified by targetKey at
// position at. Dropping onto a manual category re-parents the point there,
// where it stays until that category is emptied. Dropping onto a different
// band returns ErrBandDrop and changes nothing, since band membership is
// derived from Y on every render. Dropping inside the point's own node is a
// reorder.
func (s *Session) Drop(pointID int64, targetKey string, at int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.Has(pointID) {
		return fmt.Errorf("%w: %d", ErrUnknownPoint, pointID)
	}
	tree := s.tree()
	current, _ := tree.NodeOf(pointID)

	if id, ok := parseManualKey(targetKey); ok {
		if err := s.assigner.Reparent(pointID, id, at); err != nil {
			return err
		}
		debug.Log("drop: point %d -> %s at %d", pointID, targetKey, at)
		return nil
	}

	if current == targetKey {
		node, _ := tree.Find(targetKey)
		return s.moveWithin(node, pointID, at)
	}
	for _, band := range s.bander.Bands() {
		if band.Key() == targetKey {
			return ErrBandDrop
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownNode, targetKey)
}

// parseManualKey extracts the category id from a manual node key.
func parseManualKey(key string) (int64, bool) {
	rest, ok := strings.CutPrefix(key, "manual:")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
