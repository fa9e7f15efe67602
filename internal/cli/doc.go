// Package cli turns command-line arguments into an app.Config. Invalid input
// is reported as an *ExitError carrying the process exit code; -h asks the
// caller to exit cleanly after printing usage.
package cli
