package domain

import "fmt"

// HumanSpeakerID identifies the human player in discussion history.
const HumanSpeakerID = "human"

// HumanSpeakerName is the display name recorded for the human player.
const HumanSpeakerName = "Human Player"

// AgentProfile describes a simulated member of parliament.
type AgentProfile struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Age                 int    `json:"age"`
	Education           string `json:"education"`
	Occupation          string `json:"occupation"`
	SocioeconomicStatus string `json:"socioeconomic_status"`
	PoliticalStance     string `json:"political_stance"`
}

// Persona renders the profile as a first-person briefing for a language model.
func (a AgentProfile) Persona() string {
	return fmt.Sprintf("You are %s, a %d-year-old %s with %s. You are %s and have %s political views.",
		a.Name, a.Age, a.Occupation, a.Education, a.SocioeconomicStatus, a.PoliticalStance)
}

// Statement is something an agent said during the group discussion.
type Statement struct {
	AgentID    string `json:"agent_id"`
	AgentName  string `json:"agent_name"`
	Preference int    `json:"preference"`
	Statement  string `json:"statement"`
}

// AgentReflection is an agent's verdict on the final policy package.
type AgentReflection struct {
	AgentID             string `json:"agent_id"`
	AgentName           string `json:"agent_name"`
	Sentiment           string `json:"sentiment"`
	Reflection          string `json:"reflection"`
	PreferenceAlignment string `json:"preference_alignment"`
}
