package protocol

import (
	"github.com/a2aproject/a2a-go/a2a"
)

// Identity describes the running agent.
type Identity struct {
	Name    string
	Version string
	// URL is the public JSON-RPC endpoint.
	URL string
}

const (
	shortDescription = "Generates Bible reading plans by topic and duration."
	description      = "An agent that creates themed, multi-day Bible reading plans based on any topic. " +
		"Say 'create a 7 day plan about faith' or 'next 10 days'."
)

// InputField describes one accepted input.
type InputField struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Metadata is the static descriptor served by the metadata endpoint.
type Metadata struct {
	SchemaVersion    string                `json:"schema_version"`
	Name             string                `json:"name"`
	ShortDescription string                `json:"short_description"`
	Description      string                `json:"description"`
	Type             string                `json:"type"`
	Version          string                `json:"version"`
	Inputs           map[string]InputField `json:"inputs"`
}

// NewMetadata builds the descriptor for id.
func NewMetadata(id Identity) Metadata {
	return Metadata{
		SchemaVersion:    Version,
		Name:             id.Name,
		ShortDescription: shortDescription,
		Description:      description,
		Type:             "a2a",
		Version:          id.Version,
		Inputs: map[string]InputField{
			"input_text": {Type: "string", Description: "User text input"},
		},
	}
}

// AgentCard builds the A2A discovery card for id.
func AgentCard(id Identity) *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:               id.Name,
		Description:        description,
		Version:            id.Version,
		ProtocolVersion:    "0.3",
		URL:                id.URL,
		PreferredTransport: a2a.TransportProtocolJSONRPC,
		Capabilities: a2a.AgentCapabilities{
			Streaming:              false,
			PushNotifications:      false,
			StateTransitionHistory: false,
		},
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Skills: []a2a.AgentSkill{
			{
				ID:          "reading-plan",
				Name:        "Reading Plan",
				Description: "Create a multi-day Bible reading plan on a topic.",
				Tags:        []string{"bible", "reading-plan", "devotional"},
				Examples:    []string{"Create a 7-day plan about faith", "5 days on hope", "love"},
				InputModes:  []string{"text"},
				OutputModes: []string{"text"},
			},
			{
				ID:          "continue-plan",
				Name:        "Continue Plan",
				Description: "Deliver the next days of the current conversation's plan.",
				Tags:        []string{"bible", "reading-plan", "pagination"},
				Examples:    []string{"next 3 days", "next 10 days"},
				InputModes:  []string{"text"},
				OutputModes: []string{"text"},
			},
		},
	}
}
