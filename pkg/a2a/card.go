package a2a

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// AgentCapabilities describes the capabilities of an agent. Streaming and
// PushNotifications are derived at assembly time from which optional
// components the engine was wired with (see pkg/engine.Handler.AssembleCard),
// never set by hand.
type AgentCapabilities struct {
	Streaming              bool `json:"streaming,omitempty"`
	PushNotifications      bool `json:"pushNotifications,omitempty"`
	StateTransitionHistory bool `json:"stateTransitionHistory,omitempty"`
}

// AgentProvider identifies the organization behind an agent.
type AgentProvider struct {
	Organization string  `json:"organization"`
	URL          *string `json:"url,omitempty"`
}

// AgentSkill advertises one capability an agent exposes. Skill *routing* is
// business logic and lives outside this package; the card only advertises.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
	InputModes  []string `json:"inputModes,omitempty"`
	OutputModes []string `json:"outputModes,omitempty"`
}

// TransportInterface names one way a client may reach the agent (protocol,
// version, base URL). An AgentCard must advertise at least one.
type TransportInterface struct {
	Protocol string `json:"protocol"`
	Version  string `json:"version"`
	URL      string `json:"url"`
}

// AgentAuthentication describes schemes a client may use to authenticate
// against the agent's own endpoints (distinct from webhook delivery auth).
type AgentAuthentication struct {
	Schemes     []string `json:"schemes"`
	Credentials *string  `json:"credentials,omitempty"`
}

// AgentCard is the discovery document an agent publishes at agent/card.
type AgentCard struct {
	ID                               string               `json:"id"`
	Name                             string               `json:"name"`
	Description                      *string              `json:"description,omitempty"`
	URL                              string               `json:"url"`
	Version                          string               `json:"version"`
	Provider                         *AgentProvider       `json:"provider,omitempty"`
	IconURL                          *string              `json:"iconUrl,omitempty"`
	DocumentationURL                 *string              `json:"documentationUrl,omitempty"`
	Signatures                       []string             `json:"signatures,omitempty"`
	TransportInterfaces              []TransportInterface `json:"transportInterfaces"`
	Capabilities                     AgentCapabilities    `json:"capabilities"`
	Authentication                   *AgentAuthentication `json:"authentication,omitempty"`
	DefaultInputModes                []string             `json:"defaultInputModes"`
	DefaultOutputModes               []string             `json:"defaultOutputModes"`
	SupportsAuthenticatedExtendedCard bool                `json:"supportsAuthenticatedExtendedCard"`
	Skills                           []AgentSkill         `json:"skills"`
}

// Validate rejects cards missing required fields or carrying an
// inconsistent preferred-transport value (a transport interface whose
// Protocol is empty while others are set).
func (card *AgentCard) Validate() error {
	if card.ID == "" || card.Name == "" || card.Version == "" || card.URL == "" {
		return fmt.Errorf("agent card missing required field (id/name/version/url)")
	}

	if len(card.TransportInterfaces) == 0 {
		return fmt.Errorf("agent card must advertise at least one transport interface")
	}

	for i, t := range card.TransportInterfaces {
		if t.Protocol == "" || t.URL == "" {
			return fmt.Errorf("transport interface %d missing protocol or url", i)
		}
	}

	return nil
}

func ptr[T any](v T) *T { return &v }

func NewAgentCardFromConfig(key string) *AgentCard {
	log.Info("new agent card from config", "key", key)

	v := viper.GetViper()
	skillKeys := v.GetStringSlice(fmt.Sprintf("agent.%s.skills", key))

	skills := make([]AgentSkill, len(skillKeys))
	for i, skill := range skillKeys {
		skills[i] = NewSkillFromConfig(skill)
	}

	return &AgentCard{
		ID:      v.GetString(fmt.Sprintf("agent.%s.id", key)),
		Name:    v.GetString(fmt.Sprintf("agent.%s.name", key)),
		Version: v.GetString(fmt.Sprintf("agent.%s.version", key)),
		URL:     v.GetString(fmt.Sprintf("agent.%s.url", key)),
		Provider: &AgentProvider{
			Organization: v.GetString(fmt.Sprintf("agent.%s.provider.organization", key)),
			URL:          ptr(v.GetString(fmt.Sprintf("agent.%s.provider.url", key))),
		},
		DocumentationURL: ptr(v.GetString(fmt.Sprintf("agent.%s.documentationUrl", key))),
		TransportInterfaces: []TransportInterface{
			{
				Protocol: "jsonrpc",
				Version:  "0.3.0",
				URL:      v.GetString(fmt.Sprintf("agent.%s.url", key)),
			},
		},
		Authentication: &AgentAuthentication{
			Schemes:     v.GetStringSlice(fmt.Sprintf("agent.%s.authentication.schemes", key)),
			Credentials: ptr(v.GetString(fmt.Sprintf("agent.%s.authentication.credentials", key))),
		},
		DefaultInputModes:                 v.GetStringSlice(fmt.Sprintf("agent.%s.defaultInputModes", key)),
		DefaultOutputModes:                v.GetStringSlice(fmt.Sprintf("agent.%s.defaultOutputModes", key)),
		SupportsAuthenticatedExtendedCard: v.GetBool(fmt.Sprintf("agent.%s.supportsAuthenticatedExtendedCard", key)),
		Skills:                            skills,
	}
}

func NewSkillFromConfig(skill string) AgentSkill {
	v := viper.GetViper()

	return AgentSkill{
		ID:          v.GetString(fmt.Sprintf("skills.%s.id", skill)),
		Name:        v.GetString(fmt.Sprintf("skills.%s.name", skill)),
		Description: ptr(v.GetString(fmt.Sprintf("skills.%s.description", skill))),
		Tags:        v.GetStringSlice(fmt.Sprintf("skills.%s.tags", skill)),
		Examples:    v.GetStringSlice(fmt.Sprintf("skills.%s.examples", skill)),
		InputModes:  v.GetStringSlice(fmt.Sprintf("skills.%s.input_modes", skill)),
		OutputModes: v.GetStringSlice(fmt.Sprintf("skills.%s.output_modes", skill)),
	}
}

func (card *AgentCard) String() string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	bullet := "│ "

	sb.WriteString(headerStyle.Render("Agent Card") + "\n")
	sb.WriteString(bullet + labelStyle.Render("Name: ") + valueStyle.Render(card.Name) + "\n")
	sb.WriteString(bullet + labelStyle.Render("URL: ") + valueStyle.Render(card.URL) + "\n")
	sb.WriteString(bullet + labelStyle.Render("Version: ") + valueStyle.Render(card.Version) + "\n")

	if card.Provider != nil {
		sb.WriteString("\n" + sectionStyle.Render("Provider") + "\n")
		sb.WriteString(bullet + labelStyle.Render("Organization: ") + valueStyle.Render(card.Provider.Organization) + "\n")
	}

	sb.WriteString("\n" + sectionStyle.Render("Capabilities") + "\n")
	sb.WriteString(bullet + labelStyle.Render("Streaming: ") + valueStyle.Render(fmt.Sprintf("%v", card.Capabilities.Streaming)) + "\n")
	sb.WriteString(bullet + labelStyle.Render("Push Notifications: ") + valueStyle.Render(fmt.Sprintf("%v", card.Capabilities.PushNotifications)) + "\n")

	if len(card.Skills) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("Skills") + "\n")
		for i, skill := range card.Skills {
			sb.WriteString(bullet + labelStyle.Render(fmt.Sprintf("Skill %d: ", i+1)) + valueStyle.Render(skill.Name) + "\n")
		}
	}

	return sb.String()
}
