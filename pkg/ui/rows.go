package ui

import (
	"github.com/vanderheijden86/scatterclass/pkg/model"
)

type rowKind int

const (
	rowHeader rowKind = iota
	rowPoint
)

// treeRow is one visible line of the category tree: a node header or a
// point inside an expanded node.
type treeRow struct {
	kind     rowKind
	nodeIdx  int
	nodeKey  string
	point    model.Point
	pointIdx int // position inside the node
}

// flattenTree lays out tree as rows, skipping points of collapsed nodes.
func flattenTree(tree model.Tree, collapsed map[string]bool) []treeRow {
	rows := make([]treeRow, 0, tree.PointCount()+len(tree))
	for i, node := range tree {
		rows = append(rows, treeRow{kind: rowHeader, nodeIdx: i, nodeKey: node.Key})
		if collapsed[node.Key] {
			continue
		}
		for j, p := range node.Points {
			rows = append(rows, treeRow{kind: rowPoint, nodeIdx: i, nodeKey: node.Key, point: p, pointIdx: j})
		}
	}
	return rows
}

// cursorAnchor identifies what the cursor is on independently of row
// indexes, so it survives tree rebuilds.
type cursorAnchor struct {
	pointID int64
	nodeKey string
	isPoint bool
}

func anchorOf(rows []treeRow, cursor int) (cursorAnchor, bool) {
	if cursor < 0 || cursor >= len(rows) {
		return cursorAnchor{}, false
	}
	r := rows[cursor]
	return cursorAnchor{pointID: r.point.ID, nodeKey: r.nodeKey, isPoint: r.kind == rowPoint}, true
}

// locate finds the row for a: the same point, else the same node header,
// else fallback clamped into range.
func locate(rows []treeRow, a cursorAnchor, fallback int) int {
	if a.isPoint {
		for i, r := range rows {
			if r.kind == rowPoint && r.point.ID == a.pointID {
				return i
			}
		}
	}
	for i, r := range rows {
		if r.kind == rowHeader && r.nodeKey == a.nodeKey {
			return i
		}
	}
	if len(rows) == 0 {
		return 0
	}
	return max(0, min(fallback, len(rows)-1))
}
