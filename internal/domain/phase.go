// Package domain contains core domain types for the CHALLENGE game.
package domain

// Phase is the stage a game session is in.
type Phase string

const (
	PhaseSetup      Phase = "setup"
	PhaseIndividual Phase = "individual"
	PhaseGroup      Phase = "group"
	PhaseReflection Phase = "reflection"
)

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseSetup, PhaseIndividual, PhaseGroup, PhaseReflection:
		return true
	}
	return false
}
