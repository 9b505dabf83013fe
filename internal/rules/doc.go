// Package rules loads keyleak rule files and compiles them into matchers used
// by the detectors package. A rule file is a JSON array of rule records; the
// structure is validated against an embedded JSON Schema before decoding, so
// malformed files fail the run before any scanning begins. Individual rules
// whose pattern does not compile are kept but marked Inert.
package rules
