package llm

const generateThoughtsPrompt = `You are a reasoning system extracting factual claims from wiki excerpts to answer a question.

Question: %s
%s
Retrieved excerpts:
%s

Extract up to %d distinct factual claims that help answer the question. Each claim must:
- be a single, self-contained statement of fact
- be directly grounded in the excerpts (no outside knowledge)
- reference the excerpt numbers it is derived from

Respond ONLY with a JSON array. No markdown, no explanation. Example:
[{"claim":"The society was founded in 1951","chunk_ids":[2]}]

If the excerpts contain nothing relevant, respond with an empty array: []`

const supportPrompt = `You are a source matcher. Verify that the claim's meaning is supported by the excerpts.

Excerpts:
%s

Claim:
%s

Decide whether the excerpts reasonably support the claim, allowing paraphrase and direct inference. Identify which excerpt numbers support it.

Respond ONLY with JSON, no markdown:
{"supported":true,"confidence":0.0,"supporting_chunks":[1],"reasoning":"brief explanation naming the supporting excerpts"}`

const hallucinationPrompt = `You are a hallucination hunter. Decompose the claim into its atomic sub-claims and check each one against the excerpts.

Excerpts:
%s

Claim:
%s

A sub-claim is unsupported if no excerpt states or directly implies it. List every unsupported sub-claim; an empty list means the claim is fully grounded.

Respond ONLY with JSON, no markdown:
{"unsupported_claims":["list each unsupported sub-claim"],"confidence":0.0}`

const coherencePrompt = `You are a logic expert. Judge whether a new thought fits the reasoning chain built so far.

Accepted thoughts so far:
%s

New thought:
%s

Decide:
- keep: the thought is consistent with the chain and adds information
- merge: the thought restates an existing accepted thought; name its node id
- discard: the thought contradicts an accepted thought or adds nothing

Respond ONLY with JSON, no markdown:
{"coherence":0.0,"redundant":false,"action":"keep","related_node":null,"remarks":"brief explanation; name the related node id when one exists"}`

const followupPrompt = `You are analyzing initial search results to plan deeper retrieval.

Original question: %s

Top results so far:
%s

Generate up to 2 follow-up search queries that would surface more specific information (names, dates, details mentioned but not expanded in the results). If the results already cover the question, return an empty list.

Respond ONLY with JSON, no markdown:
{"followup_queries":["query 1","query 2"],"reasoning":"why these help"}`

const relevancePrompt = `You are a relevance checker for a wiki question-answering system.

Question: %s

Decide whether this question could plausibly be answered from the wiki's subject area. Be lenient: short, ambiguous, or jargon-heavy queries count as relevant. Mark irrelevant only when the question is clearly about something else entirely.

Respond ONLY with JSON, no markdown:
{"relevant":true,"reasoning":"brief explanation"}`

const synthesisPrompt = `You are composing a final answer from verified facts.

Question: %s

Verified facts (each cites its source pages):
%s

Write a short, direct answer to the question using ONLY the facts above. Do not add information that is not in the facts. Do not mention the verification process. Keep it to a few sentences.

Respond with ONLY the answer text. No formatting, no explanation.`
