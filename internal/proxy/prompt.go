package proxy

import "github.com/rpay/chat-relay/internal/upstream/sarvam"

// BuildMessages returns the optional system persona followed by exactly one
// user message carrying the caller's text unmodified.
func BuildMessages(systemPrompt, message string) []sarvam.Message {
	messages := make([]sarvam.Message, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, sarvam.Message{Role: "system", Content: systemPrompt})
	}
	return append(messages, sarvam.Message{Role: "user", Content: message})
}
