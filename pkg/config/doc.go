// Package config loads the anonrun tool configuration.
//
// The tool configuration describes the environment a job runs in: how to
// reach the anonymization engine, how to log, where to export metrics and
// where to keep job history. It is distinct from a job manifest, which
// describes one anonymization job.
//
// # Loading
//
// Configuration is read from a YAML file (anonrun.yaml by default). A
// missing file is not an error; built-in defaults apply. The loading
// sequence is:
//
//  1. Start from built-in defaults
//  2. Overlay the YAML file, if present
//  3. Overlay environment variables (ANONRUN_SECTION_FIELD)
//  4. Validate, collecting every field error
//
// Environment variables may be seeded from a dotenv file with LoadEnvFile.
// Variables already set in the process environment win over the file.
//
// # Example
//
//	engine:
//	  type: http
//	  base_url: http://localhost:8700
//	  timeout: 10m
//	telemetry:
//	  logging:
//	    level: info
//	    format: console
//	  metrics:
//	    textfile: /var/lib/node_exporter/anonrun.prom
//	history:
//	  path: data/history.db
//	  retention_days: 90
package config
