// Package apierror provides error inspection capabilities for CartWave platform
// API errors. It centralizes the logic for identifying different classes of
// errors returned by the platform's HTTP APIs, eliminating the need for
// string-based error checking throughout the codebase.
package apierror
