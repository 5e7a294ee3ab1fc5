package agent

import (
	"context"
	"time"

	"github.com/agentbridge/a2acore/pkg/a2a"
)

/*
Echo is a trivial reference Agent that answers every message by echoing its
text back, and in streaming mode emits one partial-message chunk per word
with a short delay between each — enough to demonstrate the sink contract
and make the "out of the box" server experience observable end to end.
*/
type Echo struct {
	NopLifecycle
	ChunkDelay time.Duration
}

func NewEcho() *Echo {
	return &Echo{ChunkDelay: 150 * time.Millisecond}
}

func (e *Echo) Process(ctx context.Context, message *a2a.Message) (*a2a.Message, error) {
	reply := a2a.NewTextMessage(a2a.RoleAgent, "echo: "+message.String())
	reply.TaskID = message.TaskID
	reply.ContextID = message.ContextID
	return reply, nil
}

func (e *Echo) ProcessStreaming(ctx context.Context, message *a2a.Message, sink Sink) error {
	text := message.String()

	if err := sink.Write(ctx, StatusHintEvent(a2a.TaskStateWorking)); err != nil {
		return err
	}

	words := splitWords(text)
	for i, word := range words {
		chunk := a2a.NewTextMessage(a2a.RoleAgent, word+" ")
		chunk.TaskID = message.TaskID
		chunk.ContextID = message.ContextID

		if err := sink.Write(ctx, PartialMessageEvent(chunk)); err != nil {
			return err
		}

		if i < len(words)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.ChunkDelay):
			}
		}
	}

	artifact := a2a.NewArtifact("echo", a2a.NewTextPart("echo: "+text))
	return sink.Write(ctx, ArtifactChunkEvent(&artifact))
}

func splitWords(text string) []string {
	var words []string
	start := -1

	for i, r := range text {
		if r == ' ' || r == '\t' || r == '\n' {
			if start >= 0 {
				words = append(words, text[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, text[start:])
	}

	if len(words) == 0 {
		words = []string{""}
	}

	return words
}
