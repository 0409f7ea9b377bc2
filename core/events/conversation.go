package events

const KindConversationReset Kind = "conversation.reset"

// ConversationReset is emitted when the history goes back to the greeting
type ConversationReset struct {
	Base
	Greeting string
}

func NewConversationReset(greeting string) ConversationReset {
	return ConversationReset{Base: NewBase(KindConversationReset), Greeting: greeting}
}
