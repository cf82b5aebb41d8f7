// Command passhash is an operator tool: it reads a password from the
// terminal without echo and prints its bcrypt hash, suitable for seeding a
// user record by hand.
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/credkeeper/credkeeper/internal/server/password"
)

func main() {
	cost := flag.Int("cost", password.DefaultCost, "bcrypt cost")
	flag.Parse()

	hasher, err := password.NewHasher(*cost)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Fprint(os.Stderr, "Enter password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	hash, err := hasher.Hash(string(pw))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
