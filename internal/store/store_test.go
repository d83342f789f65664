package store

import (
	"context"
	"errors"
	"testing"

	"github.com/wofa-ai/wofa/internal/log"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), log.NewNop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetGetDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, KeyToken); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get on empty store = %v, want ErrKeyNotFound", err)
	}

	if err := s.Set(ctx, KeyToken, "tok-1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := s.Get(ctx, KeyToken)
	if err != nil || got != "tok-1" {
		t.Fatalf("Get = (%q, %v), want (tok-1, nil)", got, err)
	}

	// Last writer wins
	if err := s.Set(ctx, KeyToken, "tok-2"); err != nil {
		t.Fatalf("second Set failed: %v", err)
	}
	if got, _ := s.Get(ctx, KeyToken); got != "tok-2" {
		t.Errorf("Get after overwrite = %q, want tok-2", got)
	}

	if err := s.Delete(ctx, KeyToken); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, KeyToken); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get after delete = %v, want ErrKeyNotFound", err)
	}

	// Deleting again is not an error
	if err := s.Delete(ctx, KeyToken); err != nil {
		t.Errorf("repeated Delete = %v, want nil", err)
	}
}

func TestGetDefault(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if got := s.GetDefault(ctx, KeyTheme, "light"); got != "light" {
		t.Errorf("GetDefault on absent key = %q, want fallback", got)
	}

	_ = s.Set(ctx, KeyTheme, "dark")
	if got := s.GetDefault(ctx, KeyTheme, "light"); got != "dark" {
		t.Errorf("GetDefault = %q, want stored value", got)
	}
}

func TestClear_RemovesAllKeys(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, key := range []string{KeyToken, KeyActiveCourse, KeyActiveLesson, KeyTheme, KeyWelcomed} {
		if err := s.Set(ctx, key, "x"); err != nil {
			t.Fatalf("Set(%s) failed: %v", key, err)
		}
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	for _, key := range []string{KeyToken, KeyActiveCourse, KeyActiveLesson, KeyTheme, KeyWelcomed} {
		if _, err := s.Get(ctx, key); !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("Get(%s) after Clear = %v, want ErrKeyNotFound", key, err)
		}
	}
}

func TestTurnHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	exchanges := []struct{ q, a string }{
		{"first question", "first answer"},
		{"second question", "second answer"},
		{"third question", "third answer"},
	}
	for _, e := range exchanges {
		if err := s.RecordTurn(ctx, e.q, e.a, "Entrepreneurship", "Lesson 1"); err != nil {
			t.Fatalf("RecordTurn failed: %v", err)
		}
	}

	records, err := s.RecentTurns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentTurns failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Course != "Entrepreneurship" {
		t.Errorf("course not recorded: %+v", records[0])
	}
}

func TestOpen_SecondInstanceLockedOut(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(dir, log.NewNop())
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	defer first.Close()

	if _, err := Open(dir, log.NewNop()); !errors.Is(err, ErrLocked) {
		t.Errorf("second Open = %v, want ErrLocked", err)
	}
}

func TestReopen_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir, log.NewNop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Set(ctx, KeyActiveCourse, "Marketing"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(dir, log.NewNop())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	if got, _ := reopened.Get(ctx, KeyActiveCourse); got != "Marketing" {
		t.Errorf("value lost across reopen: %q", got)
	}
}
