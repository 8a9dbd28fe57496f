package commands

import (
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/nahara-io/sshauth/internal/demoserver"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveUser       string
	servePassword   string
	serveRequireNew bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a throwaway authentication server to exercise the demo client against",
	Long: `serve accepts one framed TCP connection at a time and answers
SSH_MSG_USERAUTH_REQUEST traffic for the single account given by its
flags. It is a
test fixture, not a reference server; it exists so "sshauth-demo auth"
has something real to talk to.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveUser, "username", "demo", "account name this server accepts")
	serveCmd.Flags().StringVar(&servePassword, "password", "demo123", "account password")
	serveCmd.Flags().BoolVar(&serveRequireNew, "require-password-change", false, "answer each connection's first correct password with a password-change request")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := viper.GetString("addr")

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	defer ln.Close()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("component", "demoserver")
	log.Info("listening", "addr", addr, "username", serveUser)

	srv := demoserver.New(demoserver.Credentials{
		Username:       serveUser,
		Password:       servePassword,
		RequireNewPass: serveRequireNew,
	}, log)

	return srv.Serve(ln)
}
