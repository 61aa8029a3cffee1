package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(ctx context.Context, name, email, pwd string) (user.User, error) {
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	now := time.Now().UTC()

	usr, err := cli.repos.Users.GetUserByEmail(ctx, email)
	exists := err == nil
	if err != nil {
		if !core.IsNotFound(err) {
			return user.User{}, errors.Wrap(err, "finding user by email")
		}
		if name == "" {
			return user.User{}, errors.New("name is required to create a user")
		}
		usr = user.User{ID: uuid.NewString(), Email: email, CreatedAt: now}
	}
	if name != "" {
		usr.Name = name
	}
	usr.IsActive = true
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return user.User{}, errors.Wrap(err, "setting password")
	}

	if exists {
		return cli.repos.Users.UpdateUser(ctx, usr)
	}
	return cli.repos.Users.CreateUser(ctx, usr)
}

func (cli *commandLine) resetPassword(ctx context.Context, email, pwd string) error {
	usr, err := cli.repos.Users.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err = cli.repos.Users.UpdateUser(ctx, usr); err != nil {
		return err
	}
	return nil
}
