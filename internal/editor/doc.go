// Package editor defines the contracts between the completion engine and the
// host editor.
//
// The engine never owns buffers, syntax trees, diagnostics or the on-screen
// overlay. It consumes them through the interfaces declared here:
//
//   - Buffer: line storage, text replacement and the cursor
//   - SyntaxProvider / Tree / Node: a read-only view of the parse tree
//   - DiagnosticsProvider: lint and compiler diagnostics per buffer
//   - Overlay: inline virtual text placement
//   - Clipboard: the most recently yanked text
//   - Loop: the editor's single event loop
//
// Positions are 0-indexed. Columns are byte offsets within a line.
//
// Package memory provides in-process implementations of every interface for
// tests and the command-line tool.
package editor
