// Package cli provides the interactive taskkeeper command-line client.
//
// It wires configuration, the local session database, API services and a
// REPL. On start it restores a saved session if one is still valid, starts a
// background connectivity watcher and then executes user commands until
// "exit".
//
// While the server is unreachable "list" answers from the last cached result.
package cli
