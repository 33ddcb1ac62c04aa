package runner

import "github.com/chatrelay/chatrelay/core"

// SelectResponse extracts the single response to surface to the caller: the
// text of the last assistant turn in the sequence. Tool and user turns are
// ignored regardless of position. Selection is pure; the same sequence
// always yields the same result.
//
// A sequence without an assistant turn, or whose last assistant turn carries
// no text (e.g. the agent only ever emitted tool calls), fails with
// core.ErrNoResponse rather than returning an empty string.
func SelectResponse(messages []core.Content) (string, error) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != core.RoleAssistant {
			continue
		}
		if text := messages[i].Text(); text != "" {
			return text, nil
		}
		return "", core.ErrNoResponse
	}
	return "", core.ErrNoResponse
}
