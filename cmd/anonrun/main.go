// anonrun runs manifest-driven anonymization jobs.
//
// A manifest names an input dataset, the role of each column, the
// generalization hierarchy for every quasi-identifier and the privacy models
// to enforce (k-anonymity, l-diversity, t-closeness). anonrun validates it,
// loads the data and hierarchies, hands everything to an anonymization engine
// and writes the engine's result.
//
// Usage:
//
//	# Run a job
//	anonrun job.yaml
//	anonrun run job.yaml
//
//	# Check a manifest without running the engine
//	anonrun validate job.yaml --format json
//
//	# Re-run whenever the manifest or a hierarchy changes
//	anonrun watch job.yaml
//
//	# Inspect past runs
//	anonrun history list --status failure
//	anonrun history prune --older-than 30d
//
// Exit codes: 0 success, 1 unexpected failure, 2 usage, 3 configuration,
// 4 I/O, 5 engine.
package main

func main() {
	Execute()
}
