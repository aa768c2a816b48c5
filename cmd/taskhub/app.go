package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/session"
)

const defaultServer = "http://localhost:8080"

// cliEnv is built once per run in the app's Before hook.
type cliEnv struct {
	in       *bufio.Reader
	out      io.Writer
	client   *session.Client
	provider *session.Provider
	storage  session.Storage
}

func newApp(in io.Reader, out, errOut io.Writer) *cli.App {
	env := &cliEnv{in: bufio.NewReader(in), out: out}

	return &cli.App{
		Name:      "taskhub",
		Usage:     "TaskHub command line client",
		Reader:    in,
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "TaskHub API base URL",
				Value:   defaultServer,
				EnvVars: []string{"TASKHUB_SERVER"},
			},
			&cli.StringFlag{
				Name:    "session-file",
				Usage:   "where the session is kept (default ~/.taskhub/session.json)",
				EnvVars: []string{"TASKHUB_SESSION_FILE"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log requests and failures",
			},
		},
		Before: func(c *cli.Context) error {
			level := zerolog.WarnLevel
			if c.Bool("verbose") {
				level = zerolog.DebugLevel
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: errOut, TimeFormat: time.Kitchen}).
				Level(level).With().Timestamp().Logger()

			path := c.String("session-file")
			if path == "" {
				var err error
				if path, err = session.DefaultPath(); err != nil {
					return err
				}
			}
			env.storage = session.NewFileStorage(path)
			env.client = session.NewClient(c.String("server"), nil)
			env.provider = session.NewProvider(env.storage, env.client)
			env.provider.Init()
			return nil
		},
		Commands: []*cli.Command{
			env.loginCommand(),
			env.registerCommand(),
			env.logoutCommand(),
			env.whoamiCommand(),
			env.forgotCommand(),
			env.resendCommand(),
			env.resetCommand(),
		},
	}
}

func (e *cliEnv) loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "sign in and keep the session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "account email"},
		},
		Action: func(c *cli.Context) error {
			email, err := valueOrPrompt(c.String("email"), e.in, e.out, "Email")
			if err != nil {
				return err
			}
			password, err := promptPassword(e.out, "Password")
			if err != nil {
				return err
			}

			if err := e.provider.Login(c.Context, email, password); err != nil {
				return err
			}
			e.printProfile()
			return nil
		},
	}
}

func (e *cliEnv) registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "create an account and sign in",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "display name"},
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "account email"},
		},
		Action: func(c *cli.Context) error {
			name, err := valueOrPrompt(c.String("name"), e.in, e.out, "Name")
			if err != nil {
				return err
			}
			email, err := valueOrPrompt(c.String("email"), e.in, e.out, "Email")
			if err != nil {
				return err
			}
			password, err := e.newPassword()
			if err != nil {
				return err
			}

			if err := e.provider.Register(c.Context, name, email, password); err != nil {
				return err
			}
			e.printProfile()
			return nil
		},
	}
}

func (e *cliEnv) logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "end the session",
		Action: func(c *cli.Context) error {
			if e.provider.State() != session.StateAuthenticated {
				fmt.Fprintln(e.out, "Not logged in.")
				return nil
			}
			if err := e.provider.Logout(c.Context); err != nil {
				return err
			}
			fmt.Fprintln(e.out, "Logged out.")
			return nil
		},
	}
}

func (e *cliEnv) whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:      "whoami",
		Usage:     "show the session and what the web client would do on a route",
		ArgsUsage: "[route]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "refresh", Aliases: []string{"r"}, Usage: "check the session with the server first"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("refresh") && e.provider.State() == session.StateAuthenticated {
				if _, err := e.provider.Refresh(c.Context); err != nil && !errors.Is(err, session.ErrNotAuthenticated) {
					return err
				}
			}

			fmt.Fprintf(e.out, "State: %s\n", e.provider.State())
			if e.provider.State() == session.StateAuthenticated {
				e.printProfile()
			}

			route := c.Args().First()
			if route == "" {
				route = session.DefaultRoutes.HomePath
			}
			decision := e.provider.Gate(session.DefaultRoutes, route)
			if decision.Action == session.ActionRedirect {
				fmt.Fprintf(e.out, "Route %s: redirect to %s\n", route, decision.Target)
			} else {
				fmt.Fprintf(e.out, "Route %s: %s\n", route, decision.Action)
			}
			return nil
		},
	}
}

func (e *cliEnv) forgotCommand() *cli.Command {
	return &cli.Command{
		Name:  "forgot",
		Usage: "email a password reset link",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "account email"},
		},
		Action: func(c *cli.Context) error {
			email, err := valueOrPrompt(c.String("email"), e.in, e.out, "Email")
			if err != nil {
				return err
			}
			res, err := e.client.ForgotPassword(c.Context, email)
			if err != nil {
				return err
			}
			e.printResetResult(res)
			return nil
		},
	}
}

func (e *cliEnv) resendCommand() *cli.Command {
	return &cli.Command{
		Name:  "resend",
		Usage: "send the password reset link again",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "account email"},
		},
		Action: func(c *cli.Context) error {
			email, err := valueOrPrompt(c.String("email"), e.in, e.out, "Email")
			if err != nil {
				return err
			}
			res, err := e.client.ResendReset(c.Context, email)
			if err != nil {
				return err
			}
			e.printResetResult(res)
			return nil
		},
	}
}

func (e *cliEnv) resetCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "choose a new password using the emailed link",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "link", Aliases: []string{"l"}, Usage: "reset link from the email"},
			&cli.StringFlag{Name: "token", Aliases: []string{"t"}, Usage: "reset token"},
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "account email"},
		},
		Action: func(c *cli.Context) error {
			token, email := c.String("token"), c.String("email")
			if link := c.String("link"); link != "" {
				var err error
				if token, email, err = parseResetLink(link); err != nil {
					return err
				}
			}

			token, err := valueOrPrompt(token, e.in, e.out, "Token")
			if err != nil {
				return err
			}
			email, err = valueOrPrompt(email, e.in, e.out, "Email")
			if err != nil {
				return err
			}

			if _, err := e.client.VerifyReset(c.Context, token, email); err != nil {
				return err
			}

			password, err := e.newPassword()
			if err != nil {
				return err
			}
			if _, err := e.client.ResetPassword(c.Context, token, email, password); err != nil {
				return err
			}
			fmt.Fprintln(e.out, "Password updated. You can now log in.")
			return nil
		},
	}
}

func (e *cliEnv) newPassword() (string, error) {
	password, err := promptPassword(e.out, "New password")
	if err != nil {
		return "", err
	}
	confirm, err := promptPassword(e.out, "Repeat password")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}

func (e *cliEnv) printProfile() {
	p := e.provider.Profile()
	if p == nil {
		return
	}
	fmt.Fprintf(e.out, "Logged in as %s <%s> (%s)\n", p.Name, p.Email, p.Position)
}

func (e *cliEnv) printResetResult(res *models.ResetResult) {
	if res.Cooldown {
		fmt.Fprintln(e.out, "A link was sent recently. Check your inbox or try again shortly.")
		return
	}
	fmt.Fprintln(e.out, "If that address has an account, a reset link is on its way.")
}

func parseResetLink(link string) (token, email string, err error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", "", fmt.Errorf("invalid reset link: %w", err)
	}
	q := u.Query()
	token, email = q.Get("token"), q.Get("email")
	if token == "" || email == "" {
		return "", "", errors.New("reset link must carry token and email")
	}
	return token, email, nil
}
