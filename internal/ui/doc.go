// Package ui formats kahu's terminal output.
//
// Formatters render with color when the terminal supports it. When NO_COLOR
// is set or the terminal cannot show colors, they fall back to plain
// decorations:
//
//	ui.Code.Sprint("kahu share <file-id>")  // `kahu share <file-id>`
//	ui.ID.Sprint("3f2a...")                 // '3f2a...'
//	ui.Muted.Sprint("expired")              // (expired)
//
// Bytes and Expiry render sizes and deadlines for file and share listings.
package ui
