// Command sshauth-demo exercises userauth.Driver end-to-end over a
// framed TCP connection against the bundled demoserver fixture.
package main

import (
	"fmt"
	"os"

	"github.com/nahara-io/sshauth/cmd/sshauth-demo/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
