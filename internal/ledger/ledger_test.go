package ledger

import (
	"slices"
	"testing"
)

func TestApplyKeepsSetsDisjoint(t *testing.T) {
	l := New("u")

	l.Apply("j", MarkLiked)
	l.Apply("j", MarkDisliked)
	l.Apply("k", MarkLiked)

	if l.Liked.Has("j") {
		t.Fatalf("job must leave liked set when disliked")
	}
	if !l.Disliked.Has("j") || !l.Liked.Has("k") {
		t.Fatalf("unexpected ledger state: %+v", l.View())
	}

	if got := l.Swiped().Sorted(); !slices.Equal(got, []string{"j", "k"}) {
		t.Fatalf("unexpected swiped set: %v", got)
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	l := New("u")
	l.Apply("j", MarkLiked)

	c := l.Clone()
	c.Apply("x", MarkDisliked)
	c.Clear("j", MarkLiked)

	if !l.Liked.Has("j") || l.Disliked.Has("x") {
		t.Fatalf("clone mutated the original: %+v", l.View())
	}
}

func TestZeroLedgerApply(t *testing.T) {
	var l Ledger
	l.Apply("j", MarkDisliked)
	if !l.Disliked.Has("j") || l.Liked.Len() != 0 {
		t.Fatalf("unexpected state: %+v", l.View())
	}
}

func TestParseMark(t *testing.T) {
	if m, err := ParseMark("liked"); err != nil || m != MarkLiked {
		t.Fatalf("unexpected result: %v %v", m, err)
	}
	if _, err := ParseMark("maybe"); err == nil {
		t.Fatalf("expected error for unknown mark")
	}
	if MarkLiked.Opposite() != MarkDisliked || MarkDisliked.Opposite() != MarkLiked {
		t.Fatalf("unexpected opposite marks")
	}
}
