package user_test

import (
	"context"
	"net/url"
	"regexp"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studydesk/core"
	"github.com/trezcool/studydesk/core/user"
	appfs "github.com/trezcool/studydesk/fs"
	emailsvc "github.com/trezcool/studydesk/services/email"
	inmemdb "github.com/trezcool/studydesk/storage/database/inmem"
	"github.com/trezcool/studydesk/testutil"
)

func setup(t *testing.T) (*user.Service, user.Repository, *emailsvc.ConsoleServiceMock) {
	t.Helper()
	conf := core.NewTestConfig()
	core.ParseEmailTemplates(appfs.FS, conf, core.DiscardLogger)

	repo := inmemdb.NewUserRepository(inmemdb.Open())
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	return user.NewService(repo, mailSvc, conf), repo, mailSvc
}

func TestService_Create(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	testutil.CreateUser(t, repo, "Taken", "taken@test.cd", "", true)

	tests := []struct {
		name      string
		data      user.NewUser
		wantField string
	}{
		{
			name:      "email taken",
			data:      user.NewUser{Name: "Other", Email: " TAKEN@test.cd ", Password: "Tr0ub4dor&3xyz", PasswordConfirm: "Tr0ub4dor&3xyz"},
			wantField: "email",
		},
		{
			name:      "passwords mismatch",
			data:      user.NewUser{Name: "Ada", Email: "ada@test.cd", Password: "Tr0ub4dor&3xyz", PasswordConfirm: "nope"},
			wantField: "password_confirm",
		},
		{
			name: "ok",
			data: user.NewUser{Name: "  Ada ", Email: "ADA@test.cd", Password: "Tr0ub4dor&3xyz", PasswordConfirm: "Tr0ub4dor&3xyz"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.data
			err := data.Validate(ctx, validate, svc)
			if tt.wantField != "" {
				switch vErr := err.(type) {
				case validator.ValidationErrors:
					assert.Equal(t, tt.wantField, vErr[0].Field())
				case *core.ValidationError:
					assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
				default:
					t.Fatalf("Validate() error = %v, want a validation error on %s", err, tt.wantField)
				}
				return
			}
			require.NoError(t, err)

			usr, err := svc.Create(ctx, data)
			require.NoError(t, err)
			assert.NotEmpty(t, usr.ID)
			assert.Equal(t, "Ada", usr.Name)
			assert.Equal(t, "ada@test.cd", usr.Email)
			assert.True(t, usr.IsActive)
			assert.NoError(t, usr.CheckPassword("Tr0ub4dor&3xyz"))
		})
	}
}

func TestService_SetLastLogin(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "Ada", "ada@test.cd", "Tr0ub4dor&3xyz", true)
	require.True(t, usr.LastLogin.IsZero())

	usr, err := svc.SetLastLogin(ctx, usr)
	require.NoError(t, err)

	saved, err := svc.GetByEmail(ctx, "ADA@test.cd")
	require.NoError(t, err)
	assert.False(t, saved.LastLogin.IsZero())
	assert.True(t, saved.LastLogin.Equal(usr.LastLogin))
}

var resetLinkRegex = regexp.MustCompile(`/password-reset/([^/\s]+)/([^/\s]+)`)

func TestService_PasswordReset(t *testing.T) {
	svc, repo, mailSvc := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "Ada", "ada@test.cd", "Tr0ub4dor&3xyz", true)
	testutil.CreateUser(t, repo, "Gone", "gone@test.cd", "Tr0ub4dor&3xyz", false)

	assert.True(t, core.IsNotFound(svc.RequestPasswordReset(ctx, "nobody@test.cd")))
	assert.True(t, core.IsNotFound(svc.RequestPasswordReset(ctx, "gone@test.cd")))
	require.Empty(t, mailSvc.SentMessages())

	require.NoError(t, svc.RequestPasswordReset(ctx, "ada@test.cd"))
	sent := mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "ada@test.cd", sent[0].To[0].Address)

	match := resetLinkRegex.FindStringSubmatch(sent[0].TextContent)
	require.Len(t, match, 3, "no reset link in %q", sent[0].TextContent)
	uid, token := match[1], match[2]
	if unescaped, err := url.PathUnescape(token); err == nil {
		token = unescaped
	}

	newPwd := "N3w-Secret-Phrase"
	bad := user.ResetUserPassword{UID: uid, Token: "MTIz-nope", Password: newPwd, PasswordConfirm: newPwd}
	var vErr *core.ValidationError
	assert.ErrorAs(t, svc.ResetPassword(ctx, bad), &vErr)

	good := user.ResetUserPassword{UID: uid, Token: token, Password: newPwd, PasswordConfirm: newPwd}
	require.NoError(t, svc.ResetPassword(ctx, good))

	saved, err := svc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.NoError(t, saved.CheckPassword(newPwd))

	// the password changed: the token is spent
	assert.ErrorAs(t, svc.ResetPassword(ctx, good), &vErr)
}
