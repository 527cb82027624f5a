// Package utils provides loose value conversion for declared attributes, which
// arrive as whatever the JSON or YAML decoder produced (float64, int, string, bool).
package utils
