// Package detectors applies compiled keyleak rules to text. ScanLine runs the
// per-line pipeline (keyword pre-filter, pattern match, entropy gate) and Scan
// drives it over whole content, honoring the keyleak:ignore marker and
// stamping each finding with its line number and source.
package detectors
