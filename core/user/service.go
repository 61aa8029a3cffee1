package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/studydesk/core"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("user")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// UpdateUser saves every field of usr but CreatedAt.
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	ServiceInterface interface {
		CheckUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		Create(ctx context.Context, nu NewUser) (User, error)
		QueryAll(ctx context.Context) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		ChangePassword(ctx context.Context, usr User, pwd string) (User, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		tokens  tokenGenerator
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		tokens:  tokenGenerator{secret: []byte(conf.SecretKey), timeout: conf.PasswordResetTimeout},
	}
}

func (svc *Service) CheckUniqueness(ctx context.Context, email string, excludedUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, excludedUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return errors.Wrap(err, "checking email uniqueness")
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) ChangePassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// RequestPasswordReset e-mails a password reset link to the active user owning email.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *Service) sendPasswordResetMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: struct {
			Name  string
			UID   string
			Token string
		}{
			Name:  usr.Name,
			UID:   EncodeUID(usr),
			Token: svc.tokens.makeToken(usr),
		},
	})
}

func (svc *Service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	invalid := func(err error) error {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}

	id, err := decodeUID(data.UID)
	if err != nil {
		return invalid(errInvalidToken)
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return invalid(errInvalidToken)
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err = svc.tokens.verifyToken(usr, data.Token); err != nil {
		return invalid(err)
	}

	if _, err = svc.ChangePassword(ctx, usr, data.Password); err != nil {
		return errors.Wrap(err, fmt.Sprintf("changing password of user %s", usr.ID))
	}
	return nil
}
