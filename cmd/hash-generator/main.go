// Command hash-generator produces the bcrypt hash for an admin key so the
// plaintext key never has to appear in configuration. Usage:
//
//	hash-generator <key>
//
// Put the printed hash in APPLYD_AUTH_ADMIN_KEY_HASH.
package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: hash-generator <admin-key>")
		os.Exit(2)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate hash: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(hash))
}
