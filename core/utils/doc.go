// Package utils provides small helpers shared across packages: loose value
// conversion for external tool output and path arithmetic for library roots.
package utils
