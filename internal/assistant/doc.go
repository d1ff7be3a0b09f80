// Package assistant turns a user's financial question into an answer
// through a two-pass model protocol.
//
// Pass one asks the model what to do with the full tool catalog in
// scope; any tool election comes back as data instead of being executed
// inside the model call. The orchestrator dispatches at most one tool,
// sequentially, then pass two asks the model to summarize the outcome
// with exactly the three-message history [user prompt, model message,
// tool response].
//
// A login_required interrupt replaces the summary pass with an
// actionable login message. Every other failure collapses to a single
// apology; a turn never crashes the conversation.
package assistant
