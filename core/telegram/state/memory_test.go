package state

import "testing"

func TestMemoryManagerStates(t *testing.T) {
	m := NewMemoryManager()
	const user = int64(7)

	if m.InProgress(user) {
		t.Fatal("fresh manager must have no active state")
	}
	if got := m.GetState(user); got != StateIdle {
		t.Fatalf("expected idle, got %q", got)
	}

	m.SetState(user, State("step_one"))
	if !m.InProgress(user) {
		t.Fatal("expected active state after SetState")
	}
	if got := m.GetState(user); got != State("step_one") {
		t.Fatalf("expected step_one, got %q", got)
	}

	m.ClearState(user)
	if m.InProgress(user) {
		t.Fatal("ClearState must return the user to idle")
	}
}

func TestMemoryManagerTempData(t *testing.T) {
	m := NewMemoryManager()
	const user = int64(8)

	if _, ok := m.GetTemp(user, "missing"); ok {
		t.Fatal("unexpected temp value")
	}

	m.SetTemp(user, "target_id", int64(42))
	got, ok := m.GetTempInt64(user, "target_id")
	if !ok || got != 42 {
		t.Fatalf("expected 42, got %d (ok=%v)", got, ok)
	}

	m.SetTemp(user, "name", "Jane")
	m.ClearTemp(user, "name")
	if _, ok := m.GetTemp(user, "name"); ok {
		t.Fatal("ClearTemp must remove the key")
	}

	m.Clear(user)
	if _, ok := m.GetTempInt64(user, "target_id"); ok {
		t.Fatal("Clear must drop the whole session")
	}
}

func TestMemoryManagerGetTempInt64TypeMismatch(t *testing.T) {
	m := NewMemoryManager()
	m.SetTemp(9, "target_id", "not-an-int")
	if _, ok := m.GetTempInt64(9, "target_id"); ok {
		t.Fatal("string value must not assert as int64")
	}
}
