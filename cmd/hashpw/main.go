// Command hashpw prints a bcrypt or argon2id hash of a password for
// provisioning user records.
package main

import (
	"log"
	"os"

	"github.com/dmitrijs2005/tokenkeeper/internal/hashpw"
)

func main() {
	if err := hashpw.Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		log.Fatalf("%v", err)
	}
}
