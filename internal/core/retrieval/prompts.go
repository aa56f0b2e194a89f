package retrieval

// DefaultDecomposePrompt takes the user query.
const DefaultDecomposePrompt = `You are a query analysis assistant for a role-playing knowledge graph.
Break the user's question into sub-queries.

User question: %s

Knowledge graph layout:
- character nodes: a character's background, personality and speaking style
- non-character nodes: places, items, events and organizations

For each sub-query give:
1. text: what the sub-query asks
2. type: "character" (about a character) or "event" (about an event, place, item, ...)
3. priority: 1-3, 1 being the most important

Return JSON:
{
  "subqueries": [
    {"text": "...", "type": "character", "priority": 1}
  ]
}`

// DefaultReflectPrompt takes the user query and the retrieved information.
const DefaultReflectPrompt = `You judge whether retrieved information is enough to answer a question.

User question: %s

Retrieved information:
%s

Decide:
1. Is the information sufficient to answer the question?
2. If not, what is missing?

Return JSON:
{
  "is_sufficient": true,
  "missing_info": "what is missing, or an empty string",
  "new_subquery": {
    "text": "a new sub-query if more information is needed, or an empty string",
    "type": "character or event",
    "priority": 1
  }
}`
