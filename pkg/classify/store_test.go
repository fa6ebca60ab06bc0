package classify

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vanderheijden86/scatterclass/pkg/model"
)

func rows(labels ...string) []model.Row {
	out := make([]model.Row, len(labels))
	for i, l := range labels {
		out[i] = model.Row{Label: l, Y: float64(i + 1), X: float64(i)}
	}
	return out
}

func TestStore_ImportIssuesIDsFromZero(t *testing.T) {
	s := NewStore()
	n, err := s.Import(rows("a", "b", "c"))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
	if got := s.IDs(); !reflect.DeepEqual(got, []int64{0, 1, 2}) {
		t.Errorf("IDs = %v", got)
	}

	// Re-import restarts numbering.
	s.Insert("x", 1, 1, 0)
	if _, err := s.Import(rows("d")); err != nil {
		t.Fatal(err)
	}
	if got := s.IDs(); !reflect.DeepEqual(got, []int64{0}) {
		t.Errorf("IDs after re-import = %v", got)
	}
}

func TestStore_ImportEmptyKeepsState(t *testing.T) {
	s := NewStore()
	s.Import(rows("a", "b"))
	if _, err := s.Import(nil); !errors.Is(err, ErrEmptyImport) {
		t.Fatalf("err = %v, want ErrEmptyImport", err)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestStore_InsertDeleteKeepIdentity(t *testing.T) {
	s := NewStore()
	s.Import(rows("a", "b", "c"))

	p := s.Insert("new", 10, 0, 1)
	if p.ID != 3 {
		t.Errorf("new id = %d, want 3", p.ID)
	}
	if got := s.IDs(); !reflect.DeepEqual(got, []int64{0, 3, 1, 2}) {
		t.Errorf("IDs after insert = %v", got)
	}

	removed := s.Delete(0, 42)
	if !reflect.DeepEqual(removed, []int64{0}) {
		t.Errorf("removed = %v", removed)
	}
	if got := s.IDs(); !reflect.DeepEqual(got, []int64{3, 1, 2}) {
		t.Errorf("IDs after delete = %v", got)
	}
	b, ok := s.Get(1)
	if !ok || b.Label != "b" {
		t.Errorf("Get(1) = %+v, %v", b, ok)
	}

	// Ids are never reissued after a delete.
	if p := s.Insert("again", 1, 1, 99); p.ID != 4 {
		t.Errorf("id after delete = %d, want 4", p.ID)
	}
	if s.Position(4) != 3 {
		t.Errorf("out-of-range insert should append, position = %d", s.Position(4))
	}
}

func TestStore_YRange(t *testing.T) {
	s := NewStore()
	if _, _, ok := s.YRange(); ok {
		t.Error("empty store should have no range")
	}
	s.Import([]model.Row{{Label: "a", Y: 3}, {Label: "b", Y: -2}, {Label: "c", Y: 7}})
	lo, hi, ok := s.YRange()
	if !ok || lo != -2 || hi != 7 {
		t.Errorf("YRange = %v, %v, %v", lo, hi, ok)
	}
}

func TestMoveID(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []int64
	}{
		{"forward", 0, 2, []int64{2, 3, 1, 4}},
		{"backward", 3, 0, []int64{4, 1, 2, 3}},
		{"same", 1, 1, []int64{1, 2, 3, 4}},
		{"clamped", 0, 10, []int64{2, 3, 4, 1}},
		{"bad from", 7, 0, []int64{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := moveID([]int64{1, 2, 3, 4}, tt.from, tt.to)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("moveID = %v, want %v", got, tt.want)
			}
		})
	}
}
