package engine

import "github.com/agentbridge/a2acore/pkg/a2a"

/*
AssembleCard merges the handler's static AgentCard metadata with
capability flags derived from which optional components the engine was
actually wired with — streaming is true iff an SSE registry is present,
pushNotifications iff a webhook pipeline is present. Static fields are
never mutated; AssembleCard returns a new value each call.
*/
func (h *Handler) AssembleCard() *a2a.AgentCard {
	card := *h.staticCard

	card.Capabilities.Streaming = h.streams != nil
	card.Capabilities.PushNotifications = h.pipeline != nil

	return &card
}

// SetStaticCard installs the static metadata AssembleCard merges live
// capability flags into. Call once during engine construction.
func (h *Handler) SetStaticCard(card *a2a.AgentCard) {
	h.staticCard = card
}
