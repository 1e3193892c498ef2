// Package dataset reads and writes the tabular files an anonymization job
// consumes and produces, and holds the per-attribute definition (role, data
// type, hierarchy) that accompanies a table to the engine.
//
// Files are delimited text with a header row. Non-UTF-8 inputs are decoded
// with golang.org/x/text using WHATWG encoding labels ("latin1",
// "windows-1252", ...); output is written back in the same encoding.
package dataset
