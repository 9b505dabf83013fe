// Package config loads keyleak configuration from local and global YAML files.
// It is internal; CLI code applies precedence (flags > local > global) and maps
// the result into engine configuration.
package config
