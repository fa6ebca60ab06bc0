package classify

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/scatterclass/pkg/model"
)

// Assigner owns the manual categories. Categories are mutually exclusive:
// a new selection takes its points away from every older category.
type Assigner struct {
	categories []*model.ManualCategory
	created    int // categories ever created; never decremented
	palette    []string
	template   string
}

// NewAssigner creates an assigner. template names auto-named categories and
// must contain one %d.
func NewAssigner(palette []string, template string) *Assigner {
	if len(palette) == 0 {
		palette = []string{""}
	}
	if template == "" {
		template = "Selection %d"
	}
	return &Assigner{palette: palette, template: template}
}

// Assign creates a category owning exactly ids (duplicates dropped, order
// kept). Every id is first removed from all existing categories. An empty
// name produces "Selection N" where N counts categories ever created.
func (a *Assigner) Assign(ids []int64, name string) (model.ManualCategory, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return model.ManualCategory{}, ErrEmptySelection
	}
	a.Purge(ids...)

	a.created++
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf(a.template, a.created)
	}
	cat := &model.ManualCategory{
		ID:            int64(a.created),
		Name:          name,
		Members:       ids,
		Color:         a.palette[(a.created-1)%len(a.palette)],
		CreationOrder: a.created,
	}
	a.categories = append(a.categories, cat)
	a.Prune()
	return cat.Clone(), nil
}

// Rename changes a category's name.
func (a *Assigner) Rename(id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	cat := a.find(id)
	if cat == nil {
		return fmt.Errorf("%w: %s", ErrUnknownNode, model.ManualKey(id))
	}
	cat.Name = name
	return nil
}

// Purge removes ids from every category's member list.
func (a *Assigner) Purge(ids ...int64) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	for _, cat := range a.categories {
		kept := cat.Members[:0]
		for _, m := range cat.Members {
			if !drop[m] {
				kept = append(kept, m)
			}
		}
		cat.Members = kept
	}
}

// Prune drops categories whose member list is empty and returns their ids.
// Their sequence numbers are not reused.
func (a *Assigner) Prune() []int64 {
	var dropped []int64
	kept := a.categories[:0]
	for _, cat := range a.categories {
		if len(cat.Members) == 0 {
			dropped = append(dropped, cat.ID)
			continue
		}
		kept = append(kept, cat)
	}
	a.categories = kept
	return dropped
}

// Categories returns copies of all categories in creation order.
func (a *Assigner) Categories() []model.ManualCategory {
	out := make([]model.ManualCategory, len(a.categories))
	for i, cat := range a.categories {
		out[i] = cat.Clone()
	}
	return out
}

// Get returns a copy of the category with the given id.
func (a *Assigner) Get(id int64) (model.ManualCategory, bool) {
	cat := a.find(id)
	if cat == nil {
		return model.ManualCategory{}, false
	}
	return cat.Clone(), true
}

// Owner returns the id of the category holding pointID.
func (a *Assigner) Owner(pointID int64) (int64, bool) {
	for _, cat := range a.categories {
		for _, m := range cat.Members {
			if m == pointID {
				return cat.ID, true
			}
		}
	}
	return 0, false
}

// Reparent moves pointID into category id at member position at, taking it
// out of whichever category held it before. Emptied categories are pruned.
func (a *Assigner) Reparent(pointID, id int64, at int) error {
	target := a.find(id)
	if target == nil {
		return fmt.Errorf("%w: %s", ErrUnknownNode, model.ManualKey(id))
	}
	if owner, ok := a.Owner(pointID); ok && owner == id {
		return a.MoveMember(id, pointID, at)
	}
	a.Purge(pointID)
	at = clamp(at, 0, len(target.Members))
	target.Members = append(target.Members, 0)
	copy(target.Members[at+1:], target.Members[at:])
	target.Members[at] = pointID
	a.Prune()
	return nil
}

// MoveMember reorders pointID inside category id.
func (a *Assigner) MoveMember(id, pointID int64, at int) error {
	cat := a.find(id)
	if cat == nil {
		return fmt.Errorf("%w: %s", ErrUnknownNode, model.ManualKey(id))
	}
	from := indexOf(cat.Members, pointID)
	if from < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownPoint, pointID)
	}
	cat.Members = moveID(cat.Members, from, at)
	return nil
}

// Reset drops every category and restarts the sequence counter.
func (a *Assigner) Reset() {
	a.categories = nil
	a.created = 0
}

func (a *Assigner) find(id int64) *model.ManualCategory {
	for _, cat := range a.categories {
		if cat.ID == id {
			return cat
		}
	}
	return nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func indexOf(ids []int64, id int64) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
