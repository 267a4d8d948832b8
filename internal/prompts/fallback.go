package prompts

// FallbackReply is the canned response sent when the model call fails
// outright. The turn still completes; the user is asked to retry rather
// than shown an error.
const FallbackReply = "I'm having a little trouble thinking right now. Could you say that again in a moment?"

// EmptyResponseFallback covers the rarer case of a model call that
// succeeds but returns no text and no tool calls.
const EmptyResponseFallback = "I didn't quite catch that. How are you feeling right now?"
