// Package parse converts raw tool output into structured results.
//
// Every function in this package is pure and side-effect-free: string in,
// struct out. When the input looks like a structured (JSON) report the
// parser reads that, otherwise it falls back to regex extraction over the
// text. Missing or malformed counts always degrade to zero; parsers never
// return errors and never panic on garbage input, so the pipeline can
// always produce a verdict.
package parse
