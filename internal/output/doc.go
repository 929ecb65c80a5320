// Package output renders collected data for the terminal: the monitoring
// dashboard, network diagnostic reports, recorded history, and the
// structured json/yaml encodings behind --json and --output.
package output
