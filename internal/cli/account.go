package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/auth"
	"github.com/roach88/storefront/internal/shop"
)

// CredentialOptions holds flags for register and login.
type CredentialOptions struct {
	*RootOptions
	Login    string
	Password string
}

// SessionInfo is what account commands report.
type SessionInfo struct {
	LoggedIn bool   `json:"logged_in"`
	Login    string `json:"login,omitempty"`
	UserID   string `json:"user_id,omitempty"`
}

func sessionInfo(c auth.Claims) SessionInfo {
	return SessionInfo{LoggedIn: c.LoggedIn(), Login: c.Login(), UserID: c.UserID()}
}

func (i SessionInfo) text(w io.Writer) {
	if !i.LoggedIn {
		fmt.Fprintln(w, "not logged in")
		return
	}
	fmt.Fprintf(w, "logged in as %s\n", i.Login)
}

func credentialFlags(cmd *cobra.Command, opts *CredentialOptions) {
	cmd.Flags().StringVar(&opts.Login, "login", "", "account login")
	cmd.Flags().StringVar(&opts.Password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("login")
	_ = cmd.MarkFlagRequired("password")
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CredentialOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log into it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts.RootOptions, func(s *session, out *OutputFormatter) error {
				if _, err := s.run(cmd.Context(), shop.OpRegister, s.actions.FullRegister(opts.Login, opts.Password)); err != nil {
					return err
				}
				// the chained login has its own record
				if err := s.rejected(shop.OpLogin); err != nil {
					return err
				}
				return reportLogin(s, out)
			})
		},
	}
	credentialFlags(cmd, opts)
	return cmd
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CredentialOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts.RootOptions, func(s *session, out *OutputFormatter) error {
				if _, err := s.run(cmd.Context(), shop.OpLogin, s.actions.FullLogin(opts.Login, opts.Password)); err != nil {
					return err
				}
				return reportLogin(s, out)
			})
		},
	}
	credentialFlags(cmd, opts)
	return cmd
}

// reportLogin fails with ExitFailure when the flow ended logged out, which
// is how the backend answers wrong credentials.
func reportLogin(s *session, out *OutputFormatter) error {
	info := sessionInfo(s.claims())
	if !info.LoggedIn {
		return NewExitError(ExitFailure, "login failed: wrong login or password")
	}
	return out.Success(info, info.text)
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(s *session, out *OutputFormatter) error {
				s.store.Dispatch(cmd.Context(), auth.LogoutNow())
				info := sessionInfo(s.claims())
				return out.Success(info, info.text)
			})
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(s *session, out *OutputFormatter) error {
				info := sessionInfo(s.claims())
				return out.Success(info, info.text)
			})
		},
	}
}
