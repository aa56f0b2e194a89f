package memory

// DefaultCallbackPrompt takes the turn summaries and the new query.
const DefaultCallbackPrompt = `You analyze conversations. Decide whether the user's new question refers back to earlier turns.

Summaries of earlier turns:
%s

New question: %s

Does the new question need earlier conversation content (for example "what we talked about", "what you just said", "that character")?

Return JSON:
{
  "needs_callback": true,
  "related_turn_indices": [indices of the related turns, starting at 0],
  "reason": "why"
}`

// DefaultCachePrompt takes the sub-query and the cached information.
const DefaultCachePrompt = `You judge whether cached information is enough to answer a sub-query.

Sub-query: %s

Cached information:
%s

Return JSON:
{
  "is_sufficient": true,
  "reason": "why"
}`
