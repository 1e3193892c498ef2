// Package job runs manifest-driven anonymization jobs.
//
// A job moves through fixed stages, and any failure aborts it:
//
//  1. Load and validate the manifest, reporting every problem at once
//  2. Check the input exists and the output may be written
//  3. Read the input dataset
//  4. Register each declared attribute's role, data type and hierarchy
//  5. Assemble the privacy models
//  6. Ask the engine for a transformation
//  7. Write the result next to the output path and rename it into place
//
// Validate performs stages 1 to 5 only. Every run, successful or not, is
// counted in metrics and stored in job history when those are configured.
//
// Watcher re-runs a job whenever its manifest or one of its hierarchy files
// changes.
package job
