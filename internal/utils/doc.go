// Package utils holds small helpers shared by the kahu commands.
//
// ResolveFiles expands the paths and glob patterns given to upload and try,
// with ** support from doublestar. ReadPassphrase and ReadNewPassphrase read
// passphrases from the terminal without echo.
package utils
