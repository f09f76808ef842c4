package player

import (
	"math"
	"time"

	"github.com/wfunc/dungeonserver/logger"
)

// hurtDuration is how long a hit keeps a character in the hurt state before
// the periodic sweep clears it.
const hurtDuration = 400 * time.Millisecond

// MoveUpdate carries the client-reported movement state. The server trusts
// the reported position; there is deliberately no tile-passability check
// here (known trust boundary, resolved client-side).
type MoveUpdate struct {
	X              float64
	Y              float64
	Direction      string
	IsMoving       bool
	IsAttacking    bool
	IsRunAttacking bool
	IsDead         bool
	IsHurt         bool
	DeathDirection string
}

// ApplyMove overwrites the user's active character with the reported state.
// The changed result is true only when position, direction, or the moving
// flag actually differ from the previous values, so callers can skip
// redundant notifications. Returns ok=false when the user has no active
// character.
func (m *Manager) ApplyMove(username string, mv MoveUpdate) (changed, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	char := m.activeCharacterLocked(username)
	if char == nil {
		return false, false
	}

	prevX, prevY := char.X, char.Y
	prevDir, prevMoving := char.Direction, char.IsMoving

	char.X = mv.X
	char.Y = mv.Y
	char.Direction = mv.Direction
	char.IsMoving = mv.IsMoving
	char.IsAttacking = mv.IsAttacking
	char.IsRunAttacking = mv.IsRunAttacking
	char.IsDead = mv.IsDead
	char.IsHurt = mv.IsHurt
	if mv.DeathDirection != "" {
		char.DeathDirection = mv.DeathDirection
	}

	changed = prevX != char.X || prevY != char.Y ||
		prevDir != char.Direction || prevMoving != char.IsMoving
	if changed {
		logger.Log.Infof("character %s moved to (%.1f, %.1f) dir=%s", char.ID, char.X, char.Y, char.Direction)
	}
	return changed, true
}

// Attack resolves a melee swing from the user's active character at the
// target cell. The attack lands only when the attacker's rounded position is
// within Chebyshev distance 1 of the target (same cell counts); otherwise it
// is silently dropped. Every other character standing on the target cell is
// marked hurt until now+400ms. Returns the ids of the characters hit.
func (m *Manager) Attack(username string, targetX, targetY int, now time.Time) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	attacker := m.activeCharacterLocked(username)
	if attacker == nil {
		return nil
	}

	dx := math.Abs(math.Round(attacker.X) - float64(targetX))
	dy := math.Abs(math.Round(attacker.Y) - float64(targetY))
	if math.Max(dx, dy) > 1 {
		return nil
	}

	var hit []string
	hurtUntil := now.Add(hurtDuration).UnixMilli()
	for _, user := range m.users {
		for _, c := range user.Characters {
			if c.ID == attacker.ID {
				continue
			}
			if int(math.Round(c.X)) == targetX && int(math.Round(c.Y)) == targetY {
				c.IsHurt = true
				c.HurtUntil = hurtUntil
				hit = append(hit, c.ID)
				logger.Log.Infof("character %s hurt at (%.1f, %.1f) by %s", c.ID, c.X, c.Y, attacker.ID)
			}
		}
	}
	return hit
}

// SweepHurt clears the hurt flag of every character whose deadline elapsed.
// The deadline is advisory: checking it repeatedly is idempotent. Returns
// the ids that were cleared.
func (m *Manager) SweepHurt(now time.Time) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	nowMs := now.UnixMilli()
	var cleared []string
	for _, user := range m.users {
		for _, c := range user.Characters {
			if c.IsHurt && c.HurtUntil != 0 && nowMs >= c.HurtUntil {
				c.IsHurt = false
				c.HurtUntil = 0
				cleared = append(cleared, c.ID)
			}
		}
	}
	return cleared
}
