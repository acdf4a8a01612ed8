// Command cineshelf is a terminal front end for the catalog layer: it browses
// the remote catalog, manages the local account and the favorites list.
//
// Each invocation restores the persisted session, so configure a durable
// storage (FILE_STORAGE_PATH, BOLT_PATH, SQLITE_PATH or DATABASE_DSN) to keep
// state between runs.
package main

import (
	"os"
)

func main() {
	if err := run(os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
