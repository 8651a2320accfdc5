package account

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitflow/internal/auth"
	"github.com/julianstephens/habitflow/internal/cli"
)

type AuthCmd struct {
	Signup  SignUpCmd  `cmd:"" help:"Create an account and sign in."`
	Signin  SignInCmd  `cmd:"" help:"Sign in to an existing account."`
	Signout SignOutCmd `cmd:"" help:"Sign out and clear local data."`
	Whoami  WhoAmICmd  `cmd:"" help:"Show the signed-in account."`
}

// credentials prompts for whatever was not given as a flag
func credentials(email, password string, confirm bool) (string, string, error) {
	if email != "" && password != "" {
		return email, password, nil
	}

	var again string
	fields := []huh.Field{
		huh.NewInput().Title("Email").Value(&email),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password).
			Validate(func(s string) error {
				if confirm && len(s) < auth.MinPasswordLength {
					return fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
				}
				return nil
			}),
	}
	if confirm {
		fields = append(fields, huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&again).
			Validate(func(s string) error {
				if s != password {
					return errors.New("passwords do not match")
				}
				return nil
			}))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return "", "", fmt.Errorf("prompt cancelled: %w", err)
	}
	return email, password, nil
}

type SignUpCmd struct {
	Email    string `help:"Account email."`
	Password string `help:"Account password (prompted when omitted)." env:"HABITFLOW_PASSWORD"`
}

func (c *SignUpCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.RequireAuth("sign up")
	if err != nil {
		return err
	}
	email, password, err := credentials(c.Email, c.Password, c.Password == "")
	if err != nil {
		return err
	}

	id, err := svc.SignUp(ctx.Ctx, email, password)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Account created. Signed in as %s\n", id.Email)
	return nil
}

type SignInCmd struct {
	Email    string `help:"Account email."`
	Password string `help:"Account password (prompted when omitted)." env:"HABITFLOW_PASSWORD"`
}

func (c *SignInCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.RequireAuth("sign in")
	if err != nil {
		return err
	}
	email, password, err := credentials(c.Email, c.Password, false)
	if err != nil {
		return err
	}

	id, err := svc.SignIn(ctx.Ctx, email, password)
	if err != nil {
		return err
	}
	if err := ctx.Sync.SetIdentity(ctx.Ctx, &id); err != nil {
		return err
	}
	s := ctx.State()
	ctx.Printf("✓ Signed in as %s (%d habits, %d tasks)\n", id.Email, len(s.Habits), len(s.Tasks))
	return nil
}

type SignOutCmd struct{}

func (c *SignOutCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.RequireAuth("sign out")
	if err != nil {
		return err
	}
	if err := svc.SignOut(ctx.Ctx); err != nil {
		return err
	}
	if err := ctx.Sync.SetIdentity(ctx.Ctx, nil); err != nil {
		return err
	}
	ctx.Println("✓ Signed out")
	return nil
}

type WhoAmICmd struct{}

func (c *WhoAmICmd) Run(ctx *cli.Context) error {
	svc, err := ctx.RequireAuth("whoami")
	if err != nil {
		return err
	}
	id, err := svc.CurrentSession(ctx.Ctx)
	if err != nil {
		return err
	}
	if id == nil {
		ctx.Println("Not signed in. Run 'habitflow auth signin'.")
		return nil
	}
	ctx.Printf("%s (user %s)\n", id.Email, id.UserID)
	return nil
}
