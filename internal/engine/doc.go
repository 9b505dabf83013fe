// Package engine selects files under a scan root and runs compiled rules over
// them, returning findings in traversal order with basic statistics. This
// package is internal; external consumers should use the facade in pkg/core.
package engine
