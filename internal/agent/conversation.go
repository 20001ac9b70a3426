package agent

import "github.com/kayneai/code-auditor/internal/llm"

// Conversation is the append-only message log sent to the model each round.
// Messages are never reordered or mutated once appended; the ordering is the
// model's only memory across rounds.
type Conversation struct {
	messages []llm.ChatMessage
}

// NewConversation seeds the log with the system and user prompts.
func NewConversation(systemPrompt, userPrompt string) *Conversation {
	return &Conversation{
		messages: []llm.ChatMessage{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: userPrompt},
		},
	}
}

// AppendAssistant records a model turn, including any tool calls it carries.
func (c *Conversation) AppendAssistant(msg llm.ChatMessage) {
	msg.Role = llm.RoleAssistant
	c.messages = append(c.messages, msg)
}

// AppendToolResult records the outcome of one tool call, in call order.
func (c *Conversation) AppendToolResult(callID, toolName, content string) {
	c.messages = append(c.messages, llm.ChatMessage{
		Role:       llm.RoleTool,
		Content:    content,
		ToolCallID: callID,
		Name:       toolName,
	})
}

// AppendUser records a follow-up user instruction.
func (c *Conversation) AppendUser(content string) {
	c.messages = append(c.messages, llm.ChatMessage{Role: llm.RoleUser, Content: content})
}

// Messages returns the ordered history.
func (c *Conversation) Messages() []llm.ChatMessage {
	return c.messages
}

// Len reports the number of messages in the log.
func (c *Conversation) Len() int {
	return len(c.messages)
}
