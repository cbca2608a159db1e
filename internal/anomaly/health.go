package anomaly

const (
	// MaxHealth is the score of a fresh node.
	MaxHealth = 100
	// DefaultPenalty is subtracted on every tick with at least one anomaly.
	DefaultPenalty = 2
)

// HealthPolicy controls how a node's score moves per tick.
// Regen is applied on anomaly-free ticks and is zero unless configured.
type HealthPolicy struct {
	Penalty int
	Regen   int
}

// DefaultHealthPolicy returns the base policy: fixed penalty, no regeneration.
func DefaultHealthPolicy() HealthPolicy {
	return HealthPolicy{Penalty: DefaultPenalty}
}

// Next returns the score after a tick producing anomalyCount labels, clamped to [0, MaxHealth].
func (p HealthPolicy) Next(current, anomalyCount int) int {
	h := current
	if anomalyCount > 0 {
		h -= p.Penalty
	} else {
		h += p.Regen
	}
	if h < 0 {
		h = 0
	}
	if h > MaxHealth {
		h = MaxHealth
	}
	return h
}

// NextHealth applies the default policy.
func NextHealth(current, anomalyCount int) int {
	return DefaultHealthPolicy().Next(current, anomalyCount)
}
