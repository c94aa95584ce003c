// Package persistence reads and writes the files of a session: preset
// documents and the session state the CLI restores on start.
//
// Preset files are opaque text here. Parsing them is the job of package
// preset.
package persistence
