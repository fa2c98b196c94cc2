// Command hash-generator prints bcrypt hashes for the passwords given on
// the command line. Useful for seeding user rows by hand during local
// development.
package main

import (
	"fmt"
	"os"

	"github.com/phrazzld/tasktrack-api/internal/service/auth"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <password> [password ...]\n", os.Args[0])
		os.Exit(1)
	}

	hasher := auth.NewBcryptVerifier()
	for _, password := range os.Args[1:] {
		hash, err := hasher.Hash(password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
	}
}
