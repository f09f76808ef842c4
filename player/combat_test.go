package player

import (
	"testing"
	"time"
)

func TestApplyMove_ChangeDetection(t *testing.T) {
	m := NewManager()
	m.AddCharacter("alice", CharacterData{Name: "A", X: 1, Y: 1, Direction: "down"})

	mv := MoveUpdate{X: 1, Y: 1, Direction: "down"}
	changed, ok := m.ApplyMove("alice", mv)
	if !ok {
		t.Fatal("ApplyMove should succeed for a user with an active character")
	}
	if changed {
		t.Error("Identical position and direction should not count as changed")
	}

	mv.X = 2
	changed, _ = m.ApplyMove("alice", mv)
	if !changed {
		t.Error("Position change should count as changed")
	}

	mv.IsMoving = true
	changed, _ = m.ApplyMove("alice", mv)
	if !changed {
		t.Error("Moving flag change should count as changed")
	}

	// Animation-only flags do not trigger a roster push.
	mv.IsAttacking = true
	changed, _ = m.ApplyMove("alice", mv)
	if changed {
		t.Error("Attack flag alone should not count as changed")
	}
}

func TestApplyMove_NoActiveCharacter(t *testing.T) {
	m := NewManager()
	m.AddUser("ghost", "")

	if _, ok := m.ApplyMove("ghost", MoveUpdate{X: 5}); ok {
		t.Error("ApplyMove should fail for a user without characters")
	}
}

func TestApplyMove_DeathDirectionSticky(t *testing.T) {
	m := NewManager()
	m.AddCharacter("bob", CharacterData{Name: "B"})

	m.ApplyMove("bob", MoveUpdate{DeathDirection: "left"})
	m.ApplyMove("bob", MoveUpdate{X: 1})

	char, _ := m.GetActiveCharacter("bob")
	if char.DeathDirection != "left" {
		t.Errorf("Empty DeathDirection must not clear the stored value, got %q", char.DeathDirection)
	}
}

func TestAttack_InRange(t *testing.T) {
	m := NewManager()
	m.AddCharacter("attacker", CharacterData{Name: "A", X: 5, Y: 5})
	victim := m.AddCharacter("victim", CharacterData{Name: "V", X: 6, Y: 5})

	now := time.Now()
	hit := m.Attack("attacker", 6, 5, now)
	if len(hit) != 1 || hit[0] != victim.ID {
		t.Fatalf("Expected victim %s to be hit, got %v", victim.ID, hit)
	}

	char, _ := m.GetActiveCharacter("victim")
	if !char.IsHurt {
		t.Error("Victim should be marked hurt")
	}
	if char.HurtUntil != now.Add(400*time.Millisecond).UnixMilli() {
		t.Errorf("HurtUntil = %d, want now+400ms", char.HurtUntil)
	}
}

func TestAttack_OutOfRange(t *testing.T) {
	m := NewManager()
	m.AddCharacter("attacker", CharacterData{Name: "A", X: 5, Y: 5})
	m.AddCharacter("victim", CharacterData{Name: "V", X: 8, Y: 5})

	if hit := m.Attack("attacker", 8, 5, time.Now()); hit != nil {
		t.Errorf("Attack beyond Chebyshev distance 1 should be dropped, got %v", hit)
	}

	char, _ := m.GetActiveCharacter("victim")
	if char.IsHurt {
		t.Error("Out-of-range attack must not mark the target hurt")
	}
}

func TestAttack_DiagonalCounts(t *testing.T) {
	m := NewManager()
	m.AddCharacter("attacker", CharacterData{Name: "A", X: 5.4, Y: 5.4})
	m.AddCharacter("victim", CharacterData{Name: "V", X: 6, Y: 6})

	// Rounded attacker position (5,5) is diagonally adjacent to (6,6).
	if hit := m.Attack("attacker", 6, 6, time.Now()); len(hit) != 1 {
		t.Errorf("Diagonal attack should land, got %v", hit)
	}
}

func TestAttack_NeverHitsSelf(t *testing.T) {
	m := NewManager()
	m.AddCharacter("solo", CharacterData{Name: "S", X: 5, Y: 5})

	if hit := m.Attack("solo", 5, 5, time.Now()); hit != nil {
		t.Errorf("Attacker must not hit itself, got %v", hit)
	}
}

func TestSweepHurt(t *testing.T) {
	m := NewManager()
	m.AddCharacter("attacker", CharacterData{Name: "A", X: 5, Y: 5})
	victim := m.AddCharacter("victim", CharacterData{Name: "V", X: 5, Y: 6})

	now := time.Now()
	m.Attack("attacker", 5, 6, now)

	// Before the deadline nothing clears.
	if cleared := m.SweepHurt(now.Add(100 * time.Millisecond)); cleared != nil {
		t.Errorf("Sweep before the deadline cleared %v", cleared)
	}

	cleared := m.SweepHurt(now.Add(500 * time.Millisecond))
	if len(cleared) != 1 || cleared[0] != victim.ID {
		t.Fatalf("Expected %s cleared, got %v", victim.ID, cleared)
	}

	char, _ := m.GetActiveCharacter("victim")
	if char.IsHurt || char.HurtUntil != 0 {
		t.Error("Cleared character should have hurt state reset")
	}

	// Sweeping again is idempotent.
	if cleared := m.SweepHurt(now.Add(time.Second)); cleared != nil {
		t.Errorf("Second sweep cleared %v", cleared)
	}
}
