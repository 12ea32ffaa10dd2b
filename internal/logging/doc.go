// Package logging wraps log/slog with the structured conventions used across
// Bookreel: typed attribute helpers, component loggers, standardized field
// keys, and console/JSON handlers selected by configuration. Job, scene, and
// stage identifiers travel in context and are attached via WithContext.
package logging
