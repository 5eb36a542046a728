// Command sapphoctl provides offline administration for a Sappho
// installation: creating and restoring backups without a running server.
package main

import (
	"fmt"
	"os"

	"github.com/sappho-media/sappho/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "backup":
		runBackup(os.Args[2:])
	case "restore":
		runRestore(os.Args[2:])
	case "version":
		fmt.Println(version.Info())
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: sapphoctl <command> [flags]

commands:
  backup    create a backup bundle of the database and covers
  restore   restore a backup bundle
  version   print version information`)
}
