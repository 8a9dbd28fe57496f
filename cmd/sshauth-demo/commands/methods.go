package commands

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net"
	"time"

	"github.com/nahara-io/sshauth/internal/demotransport"
	"github.com/nahara-io/sshauth/userauth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var methodsUsername string

var methodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "List the authentication methods the demo server advertises",
	RunE:  runMethods,
}

func init() {
	methodsCmd.Flags().StringVarP(&methodsUsername, "username", "u", "demo", "account to probe")
}

func runMethods(cmd *cobra.Command, args []string) error {
	addr := viper.GetString("addr")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", addr, err)
	}
	defer conn.Close()

	sum := sha256.Sum256([]byte(conn.LocalAddr().String() + conn.RemoteAddr().String()))
	transport := demotransport.New(conn, sum[:])

	driver, err := userauth.NewDriver(ctx, transport)
	if err != nil {
		return fmt.Errorf("starting userauth: %w", err)
	}

	methods, err := driver.ListMethods(ctx, methodsUsername, "ssh-connection")
	if err != nil {
		return fmt.Errorf("listing methods: %w", err)
	}
	if driver.IsAuthenticated() {
		fmt.Println("server accepts empty authentication")
		return nil
	}
	for _, m := range methods {
		fmt.Println(m)
	}
	return nil
}
