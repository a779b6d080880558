// Package logger provides leveled console logging for kahu commands and workflows.
//
// The logger supports multiple verbosity levels controlled by command-line
// flags. Output is prefixed and colored with fatih/color.
//
// # Verbosity Levels
//
//   - --verbose: Shows info messages
//   - --debug: Shows all messages including debug details and errors
//
// Warnings are always shown.
//
// # Usage
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Encrypting %d files", count)
//
// The command layer builds one logger in PersistentPreRun and hands it to
// workflows.Client. Passphrases, raw keys and plaintext are never logged.
package logger
