package response

// DefaultResponsePrompt takes the role, the rendered context, the role again
// and the user question.
const DefaultResponsePrompt = `You are playing the role of %s.
Answer the user's question using ONLY the context below while keeping to the character's persona and speaking style.

Context:
%s

Instructions:
1. Answer accurately from the context.
2. Speak as %s, with their tone, vocabulary and mannerisms.
3. If the context does not contain the answer, admit it in character.
4. Never mention that you are an AI or that you were given context.

User question: %s

Response:`

// DefaultSummaryPrompt takes the user question and the response.
const DefaultSummaryPrompt = `Summarize this conversation turn in one short paragraph for future reference.
Keep the key facts discussed and any personal details revealed.

User: %s
Assistant: %s

Summary:`
