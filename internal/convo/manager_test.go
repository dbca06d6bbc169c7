package convo

import (
	"context"
	"testing"
	"time"
)

func TestManagerAppendAndHistory(t *testing.T) {
	m := NewManager(20, time.Minute)
	m.Append("u1", RoleVisitor, "Merhaba")
	m.Append("u1", RoleGuide, "Hoş geldiniz!")

	got := m.History("u1")
	if len(got) != 2 {
		t.Fatalf("history length = %d, want 2", len(got))
	}
	if got[0].Role != RoleVisitor || got[1].Role != RoleGuide {
		t.Fatalf("unexpected turn order: %+v", got)
	}
	if m.History("unknown") != nil {
		t.Fatalf("unknown user should have nil history")
	}
}

func TestManagerEvictsOldestFirst(t *testing.T) {
	m := NewManager(3, time.Minute)
	m.Append("u1", RoleVisitor, "first")
	m.Append("u1", RoleGuide, "second")
	m.Append("u1", RoleVisitor, "third")
	m.Append("u1", RoleGuide, "fourth")

	got := m.History("u1")
	if len(got) != 3 {
		t.Fatalf("history length = %d, want 3", len(got))
	}
	if got[0].Content != "second" {
		t.Fatalf("oldest turn = %q, want %q", got[0].Content, "second")
	}
	if got[2].Content != "fourth" {
		t.Fatalf("newest turn = %q, want %q", got[2].Content, "fourth")
	}
}

func TestManagerHistoryIsACopy(t *testing.T) {
	m := NewManager(5, time.Minute)
	m.Append("u1", RoleVisitor, "soru")
	got := m.History("u1")
	got[0].Content = "mutated"
	if m.History("u1")[0].Content != "soru" {
		t.Fatalf("History must return a copy")
	}
}

func TestManagerJanitorExpiresIdle(t *testing.T) {
	m := NewManager(5, 30*time.Millisecond)
	expired := make(chan string, 1)
	m.SetExpireHook(func(userID string) { expired <- userID })
	m.Append("u1", RoleVisitor, "soru")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartJanitor(ctx, 10*time.Millisecond)

	select {
	case userID := <-expired:
		if userID != "u1" {
			t.Fatalf("expired user = %q, want u1", userID)
		}
	case <-time.After(time.Second):
		t.Fatalf("janitor did not expire the idle conversation")
	}
	if m.ActiveCount() != 0 {
		t.Fatalf("ActiveCount = %d, want 0", m.ActiveCount())
	}
}
