// Package scriptgen talks to an OpenAI-compatible chat-completions API to
// produce the job-level style anchor and the per-scene scripts. Responses are
// requested as JSON and decoded tolerantly (code fences and prose wrapping are
// stripped before unmarshaling).
package scriptgen
