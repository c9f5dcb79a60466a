/*
Package inference turns a prompt into an AuditResult.

Orchestrator walks an ordered list of Backends and returns the first
non-empty reply; models are tried one at a time and each failure is kept
for the ExhaustionError raised when none answer. Parser recovers the first
JSON object from the reply and checks it against result.schema.json before
decoding.

	client, err := inference.NewGeminiClient(ctx, apiKey)
	orch := inference.NewOrchestrator(inference.NewGeminiBackends(client, models))
	attempt, err := orch.Generate(ctx, prompt)
	result, err := inference.MustParser().Parse(attempt.Text)
*/
package inference
