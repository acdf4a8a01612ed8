package main

import (
	"errors"
	"fmt"
	"strconv"

	validator "github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/patric-chuzhbe/cineshelf/internal/session"
	"github.com/patric-chuzhbe/cineshelf/internal/tmdb"
)

// errRejected is returned when a store refused the operation. The reason was
// already shown to the user through the notifier.
var errRejected = errors.New("operation rejected")

func (c *cli) registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register NAME EMAIL",
		Short: "Create a local account and log in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := c.promptPassword(cmd.ErrOrStderr(), "Password")
			if err != nil {
				return err
			}
			confirmation, err := c.promptPassword(cmd.ErrOrStderr(), "Confirm password")
			if err != nil {
				return err
			}
			if err := c.validateRegistration(registrationForm{
				Name:         args[0],
				Email:        args[1],
				Password:     password,
				Confirmation: confirmation,
			}); err != nil {
				return err
			}
			if !c.app.Session.Register(cmd.Context(), args[0], args[1], password) {
				return errRejected
			}
			fmt.Fprintf(c.out, "Welcome, %s\n", args[0])

			return nil
		},
	}
}

// registrationForm holds what the register command asks for. The session
// store accepts any unique e-mail; these are the form's own rules.
type registrationForm struct {
	Name         string `validate:"required"`
	Email        string `validate:"required"`
	Password     string `validate:"required,min=6"`
	Confirmation string `validate:"eqfield=Password"`
}

var (
	errEmptyField       = errors.New("please fill in every field")
	errPasswordMismatch = errors.New("the passwords do not match")
	errShortPassword    = errors.New("the password must have at least 6 characters")
)

func (c *cli) validateRegistration(form registrationForm) error {
	err := c.validate.Struct(form)
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	switch validationErrors[0].Tag() {
	case "required":
		return errEmptyField
	case "eqfield":
		return errPasswordMismatch
	case "min":
		return errShortPassword
	}

	return err
}

func (c *cli) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login EMAIL",
		Short: "Log in with a local account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := c.promptPassword(cmd.ErrOrStderr(), "Password")
			if err != nil {
				return err
			}
			if !c.app.Session.Login(cmd.Context(), args[0], password) {
				return errRejected
			}
			fmt.Fprintf(c.out, "Logged in as %s\n", c.app.Session.State().User.Name)

			return nil
		},
	}
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !c.app.Session.Logout(cmd.Context()) {
				return errors.New("logout failed")
			}
			fmt.Fprintln(c.out, "Logged out")

			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state := c.app.Session.State()
			if state.Phase != session.Authenticated {
				fmt.Fprintln(c.out, "Not logged in")
				return nil
			}

			usr := state.User
			fmt.Fprintf(c.out, "%s <%s>\n", usr.Name, usr.Email)
			fmt.Fprintf(c.out, "Member since %s\n", usr.CreatedAt.Format("2006-01-02"))
			if usr.Bio != "" {
				fmt.Fprintf(c.out, "Bio: %s\n", usr.Bio)
			}
			if usr.AvatarURL != "" {
				fmt.Fprintf(c.out, "Avatar: %s\n", usr.AvatarURL)
			}
			fmt.Fprintf(c.out, "Favorites: %d\n", len(c.app.Favorites.Items()))

			return nil
		},
	}
}

func (c *cli) profileCmd() *cobra.Command {
	var bio, avatar string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update the bio or the avatar of the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("bio") && !cmd.Flags().Changed("avatar") {
				return errors.New("nothing to update: pass --bio or --avatar")
			}
			if cmd.Flags().Changed("bio") && !c.app.Session.UpdateProfile(ctx, session.ProfileUpdate{Bio: &bio}) {
				return errRejected
			}
			if cmd.Flags().Changed("avatar") && !c.app.Session.UpdateAvatar(ctx, avatar) {
				return errRejected
			}
			fmt.Fprintln(c.out, "Profile updated")

			return nil
		},
	}
	cmd.Flags().StringVar(&bio, "bio", "", "new bio")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar image URI")

	return cmd
}

func (c *cli) favoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "List the favorites of the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.app.Session.State().Phase != session.Authenticated {
				return errors.New("log in to see favorites")
			}
			for _, item := range c.app.Favorites.Items() {
				fmt.Fprintf(c.out, "%d\t%s\t%.1f\t%s\t%s\n",
					item.ID, item.MediaType, item.VoteAverage, item.Title, tmdb.PosterURL(item.PosterPath))
			}

			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add KIND ID",
			Short: "Add a movie or series to the favorites",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				entry, err := c.fetchEntry(cmd, args[0], args[1])
				if err != nil {
					return err
				}
				if c.app.Favorites.Contains(entry.ID) {
					fmt.Fprintf(c.out, "%s is already a favorite\n", entry.DisplayTitle())
					return nil
				}
				if !c.app.Favorites.Add(cmd.Context(), entry.Favorite()) {
					return errors.New("could not add the favorite; are you logged in?")
				}
				fmt.Fprintf(c.out, "Added %s\n", entry.DisplayTitle())

				return nil
			},
		},
		&cobra.Command{
			Use:   "remove ID",
			Short: "Remove an item from the favorites",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid id %q: %w", args[0], err)
				}
				if !c.app.Favorites.Remove(cmd.Context(), id) {
					return errors.New("could not remove the favorite; are you logged in?")
				}
				fmt.Fprintf(c.out, "Removed %d\n", id)

				return nil
			},
		},
	)

	return cmd
}
