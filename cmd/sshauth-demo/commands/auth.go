package commands

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/nahara-io/sshauth/internal/demotransport"
	"github.com/nahara-io/sshauth/internal/obslog"
	"github.com/nahara-io/sshauth/userauth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/ssh"
)

var (
	authUsername string
	authMethod   string
	authKeyPath  string
	authNewPass  string
	authTimeout  time.Duration
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate once against the demo server",
	Long: `auth connects to the demo server, lists its advertised methods, and
drives a single authentication method (password, publickey, or
keyboard-interactive) to completion.`,
	RunE: runAuth,
}

func init() {
	authCmd.Flags().StringVarP(&authUsername, "username", "u", "demo", "account to authenticate as")
	authCmd.Flags().StringVarP(&authMethod, "method", "m", "password", "method to run: password, publickey, keyboard-interactive")
	authCmd.Flags().StringVar(&authKeyPath, "key", "", "private key file (required for --method publickey)")
	authCmd.Flags().StringVar(&authNewPass, "new-password", "", "replacement password to send if the server requests a change (method password only)")
	authCmd.Flags().DurationVar(&authTimeout, "timeout", 30*time.Second, "overall timeout for the authentication attempt")
}

func runAuth(cmd *cobra.Command, args []string) error {
	addr := viper.GetString("addr")

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", addr, err)
	}
	defer conn.Close()

	// A real client derives this from its RFC 4253 key exchange; this demo
	// has no such handshake, so it derives a stable per-connection
	// identifier from the two endpoint addresses instead.
	sum := sha256.Sum256([]byte(conn.LocalAddr().String() + conn.RemoteAddr().String()))
	transport := demotransport.New(conn, sum[:])

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	driver, err := userauth.NewDriver(ctx, transport,
		userauth.WithObserver(obslog.New(log)),
		userauth.WithBannerSink(userauth.NewWriterBannerSink(os.Stdout)),
	)
	if err != nil {
		return fmt.Errorf("starting userauth: %w", err)
	}

	methods, err := driver.ListMethods(ctx, authUsername, "ssh-connection")
	if err != nil {
		return fmt.Errorf("listing methods: %w", err)
	}
	if driver.IsAuthenticated() {
		fmt.Println("server accepts empty authentication; already authenticated")
		return nil
	}
	fmt.Printf("server offers: %v\n", methods)

	method, err := buildMethod(authUsername)
	if err != nil {
		return err
	}

	outcome, err := driver.Authenticate(ctx, method)
	if err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}

	switch outcome.Kind {
	case userauth.Complete:
		fmt.Println("authentication succeeded")
		return nil
	case userauth.FurtherRequired:
		return fmt.Errorf("authentication requires additional methods: %v", outcome.Methods)
	default:
		return fmt.Errorf("authentication failed (%s), remaining methods: %v", outcome.Kind, outcome.Methods)
	}
}

func buildMethod(username string) (userauth.Method, error) {
	switch authMethod {
	case "password":
		pw, err := promptPassword("Password")
		if err != nil {
			return nil, err
		}
		m := userauth.NewPasswordMethod(username, "ssh-connection", pw)
		if authNewPass != "" {
			m.WithNewPassword(authNewPass)
		}
		return m, nil

	case "publickey":
		if authKeyPath == "" {
			return nil, fmt.Errorf("--key is required for --method publickey")
		}
		keyBytes, err := os.ReadFile(authKeyPath)
		if err != nil {
			return nil, fmt.Errorf("reading key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("parsing private key: %w", err)
		}
		return userauth.NewPublicKeyMethod(username, "ssh-connection", userauth.WrapCryptoSigner(signer)), nil

	case "keyboard-interactive":
		return userauth.NewKeyboardInteractiveMethod(username, "ssh-connection", promptKeyboardInteractive), nil

	default:
		return nil, fmt.Errorf("unknown method %q", authMethod)
	}
}

func promptPassword(label string) (string, error) {
	prompt := promptui.Prompt{Label: label, Mask: '*'}
	return prompt.Run()
}

func promptKeyboardInteractive(name, instruction string, prompts []userauth.Prompt) ([]string, error) {
	if name != "" {
		fmt.Println(name)
	}
	if instruction != "" {
		fmt.Println(instruction)
	}
	responses := make([]string, len(prompts))
	for i, p := range prompts {
		prompt := promptui.Prompt{Label: p.Text}
		if !p.Echo {
			prompt.Mask = '*'
		}
		answer, err := prompt.Run()
		if err != nil {
			return nil, err
		}
		responses[i] = answer
	}
	return responses, nil
}
