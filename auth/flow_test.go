package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/consorcioci/viernes/access"
	"github.com/consorcioci/viernes/auth/mocks"
	"github.com/consorcioci/viernes/client"
	"github.com/consorcioci/viernes/session"
	"github.com/consorcioci/viernes/storage/memory"
)

func newFlow(t *testing.T) (*Flow, *mocks.MockAPI, *session.Resolver) {
	t.Helper()
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAPI(ctrl)
	res := session.New(memory.NewRepository())
	return NewFlow(api, res), api, res
}

func flowError(t *testing.T, err error) *FlowError {
	t.Helper()
	var fe *FlowError
	require.ErrorAs(t, err, &fe)
	return fe
}

// toChangePassword walks a fresh flow to StepChangePassword holding
// temporary token "tmp".
func toChangePassword(t *testing.T, f *Flow, api *mocks.MockAPI) {
	t.Helper()
	ctx := context.Background()
	api.EXPECT().ValidateCedula(gomock.Any(), "12345678").
		Return(&client.CedulaInfo{NextStep: client.NextStepTempLogin}, nil)
	api.EXPECT().ValidateTemporaryPassword(gomock.Any(), "12345678", "Tmp-123").
		Return(&client.TemporaryGrant{TemporaryToken: "tmp"}, nil)
	require.NoError(t, f.SubmitCedula(ctx, "12345678"))
	require.NoError(t, f.SubmitTemporaryPassword(ctx, []byte(" Tmp-123 ")))
	require.Equal(t, StepChangePassword, f.Step())
}

func TestInitialState(t *testing.T) {
	f, _, _ := newFlow(t)
	s := f.State()
	assert.Equal(t, StepCedula, s.Step)
	assert.False(t, s.Busy)
	assert.Nil(t, s.Err)
}

func TestCedulaLeadsToTemporaryPassword(t *testing.T) {
	f, api, _ := newFlow(t)
	api.EXPECT().ValidateCedula(gomock.Any(), "12345678").
		Return(&client.CedulaInfo{NextStep: "temp-login"}, nil)

	require.NoError(t, f.SubmitCedula(context.Background(), "12345678"))
	assert.Equal(t, StepTemporaryPassword, f.Step())
}

func TestCedulaLeadsToNormalPassword(t *testing.T) {
	f, api, _ := newFlow(t)
	api.EXPECT().ValidateCedula(gomock.Any(), "12345678").
		Return(&client.CedulaInfo{NextStep: "normal-login", Name: "Ana"}, nil)

	require.NoError(t, f.SubmitCedula(context.Background(), "  12345678 "))
	s := f.State()
	assert.Equal(t, StepNormalPassword, s.Step)
	assert.Equal(t, "12345678", s.Cedula)
	assert.Equal(t, "Ana", s.Name)
}

func TestUnknownNextStepMeansTemporaryPassword(t *testing.T) {
	f, api, _ := newFlow(t)
	api.EXPECT().ValidateCedula(gomock.Any(), gomock.Any()).Return(&client.CedulaInfo{NextStep: "other"}, nil)

	require.NoError(t, f.SubmitCedula(context.Background(), "1"))
	assert.Equal(t, StepTemporaryPassword, f.Step())
}

func TestEmptyCedulaMakesNoCall(t *testing.T) {
	f, _, _ := newFlow(t)

	fe := flowError(t, f.SubmitCedula(context.Background(), "   "))
	assert.Equal(t, KindValidation, fe.Kind)
	assert.Equal(t, MsgCedulaRequired, fe.Message)
	assert.Equal(t, StepCedula, f.Step())
	assert.Equal(t, fe, f.State().Err)
}

func TestCedulaRejectedKeepsStepAndServerMessage(t *testing.T) {
	f, api, _ := newFlow(t)
	api.EXPECT().ValidateCedula(gomock.Any(), "999").
		Return(nil, &client.APIError{StatusCode: 404, Message: "Cédula no registrada"})

	fe := flowError(t, f.SubmitCedula(context.Background(), "999"))
	assert.Equal(t, KindRejected, fe.Kind)
	assert.Equal(t, "Cédula no registrada", fe.Message)
	assert.Equal(t, StepCedula, f.Step())
	assert.False(t, f.State().Busy)
}

func TestTransportFailureUsesGenericMessage(t *testing.T) {
	f, api, _ := newFlow(t)
	api.EXPECT().ValidateCedula(gomock.Any(), "1").
		Return(nil, &client.ResponseError{StatusCode: 502, Snippet: "<html>"})

	fe := flowError(t, f.SubmitCedula(context.Background(), "1"))
	assert.Equal(t, KindTransport, fe.Kind)
	assert.Equal(t, MsgConnection, fe.Message)
	assert.Equal(t, StepCedula, f.Step())

	// The user can retry once the failure is reported.
	api.EXPECT().ValidateCedula(gomock.Any(), "1").Return(&client.CedulaInfo{NextStep: "normal-login"}, nil)
	require.NoError(t, f.SubmitCedula(context.Background(), "1"))
	assert.Equal(t, StepNormalPassword, f.Step())
	assert.Nil(t, f.State().Err)
}

func TestRejectionWithoutMessage(t *testing.T) {
	f, api, _ := newFlow(t)
	api.EXPECT().ValidateCedula(gomock.Any(), "1").Return(nil, &client.APIError{StatusCode: 400})

	fe := flowError(t, f.SubmitCedula(context.Background(), "1"))
	assert.Equal(t, MsgRejected, fe.Message)
}

func TestSubmitOutOfStep(t *testing.T) {
	f, _, _ := newFlow(t)
	ctx := context.Background()
	assert.ErrorIs(t, f.SubmitTemporaryPassword(ctx, []byte("x")), ErrInvalidStep)
	assert.ErrorIs(t, f.SubmitNormalPassword(ctx, []byte("x")), ErrInvalidStep)
	assert.ErrorIs(t, f.SubmitChangePassword(ctx, []byte("x"), []byte("x")), ErrInvalidStep)
	assert.ErrorIs(t, f.Back(), ErrInvalidStep)
	assert.Equal(t, StepCedula, f.Step())
}

func TestNormalLoginCommitsSession(t *testing.T) {
	f, api, res := newFlow(t)
	ctx := context.Background()
	api.EXPECT().ValidateCedula(gomock.Any(), "12345678").Return(&client.CedulaInfo{NextStep: "normal-login"}, nil)
	api.EXPECT().Login(gomock.Any(), "12345678", "Secret12").
		Return(&client.AuthGrant{AuthToken: "T2", Cedula: "12345678", Name: "Ana", Cargo: "TECNOLOGO CGO"}, nil)

	require.NoError(t, f.SubmitCedula(ctx, "12345678"))
	pw := []byte("Secret12\n")
	require.NoError(t, f.SubmitNormalPassword(ctx, pw))

	assert.Equal(t, StepAuthenticated, f.Step())
	assert.Equal(t, make([]byte, len(pw)), pw, "password buffer is wiped")
	u, ok := res.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, access.RoleAdmin, u.Role)
}

func TestEmptyNormalPasswordMakesNoCall(t *testing.T) {
	f, api, _ := newFlow(t)
	api.EXPECT().ValidateCedula(gomock.Any(), "1").Return(&client.CedulaInfo{NextStep: "normal-login"}, nil)
	require.NoError(t, f.SubmitCedula(context.Background(), "1"))

	fe := flowError(t, f.SubmitNormalPassword(context.Background(), []byte("  ")))
	assert.Equal(t, MsgPassRequired, fe.Message)
	assert.Equal(t, StepNormalPassword, f.Step())
}

func TestWrongPasswordStays(t *testing.T) {
	f, api, res := newFlow(t)
	api.EXPECT().ValidateCedula(gomock.Any(), "1").Return(&client.CedulaInfo{NextStep: "normal-login"}, nil)
	api.EXPECT().Login(gomock.Any(), "1", "bad").
		Return(nil, &client.APIError{StatusCode: 401, Message: "Contraseña incorrecta"})

	require.NoError(t, f.SubmitCedula(context.Background(), "1"))
	fe := flowError(t, f.SubmitNormalPassword(context.Background(), []byte("bad")))
	assert.Equal(t, "Contraseña incorrecta", fe.Message)
	assert.Equal(t, StepNormalPassword, f.Step())
	assert.False(t, res.IsAuthenticated())
}

func TestTemporaryPasswordStoresToken(t *testing.T) {
	f, api, res := newFlow(t)
	toChangePassword(t, f, api)

	tok, ok := res.TemporaryToken()
	require.True(t, ok)
	assert.Equal(t, "tmp", tok)
	assert.False(t, res.IsAuthenticated())
}

func TestEmptyTemporaryPassword(t *testing.T) {
	f, api, _ := newFlow(t)
	api.EXPECT().ValidateCedula(gomock.Any(), "1").Return(&client.CedulaInfo{NextStep: "temp-login"}, nil)
	require.NoError(t, f.SubmitCedula(context.Background(), "1"))

	fe := flowError(t, f.SubmitTemporaryPassword(context.Background(), nil))
	assert.Equal(t, MsgTempRequired, fe.Message)
	assert.Equal(t, StepTemporaryPassword, f.Step())
}

func TestMismatchedPasswordsMakeNoCall(t *testing.T) {
	f, api, _ := newFlow(t)
	toChangePassword(t, f, api)

	// The mock fails the test on any unexpected ChangePassword call.
	fe := flowError(t, f.SubmitChangePassword(context.Background(), []byte("Secret12"), []byte("Secret99")))
	assert.Equal(t, KindValidation, fe.Kind)
	assert.Equal(t, "passwords do not match", fe.Message)
	assert.Equal(t, StepChangePassword, f.Step())
}

func TestChangePasswordValidationOrder(t *testing.T) {
	f, api, _ := newFlow(t)
	toChangePassword(t, f, api)
	ctx := context.Background()

	fe := flowError(t, f.SubmitChangePassword(ctx, []byte("abc"), nil))
	assert.Equal(t, MsgFieldsRequired, fe.Message)

	fe = flowError(t, f.SubmitChangePassword(ctx, []byte("abc"), []byte("abd")))
	assert.Equal(t, MsgMismatch, fe.Message)

	fe = flowError(t, f.SubmitChangePassword(ctx, []byte("abc"), []byte("abc")))
	assert.ErrorIs(t, fe, ErrPasswordTooShort)
	assert.Equal(t, ErrPasswordTooShort.Error(), fe.Message)

	fe = flowError(t, f.SubmitChangePassword(ctx, []byte("abcdefg1"), []byte("abcdefg1")))
	assert.ErrorIs(t, fe, ErrPasswordNoUpper)
	assert.Equal(t, StepChangePassword, f.Step())
}

func TestChangePasswordCommitsSession(t *testing.T) {
	f, api, res := newFlow(t)
	toChangePassword(t, f, api)
	api.EXPECT().ChangePassword(gomock.Any(), "tmp", "12345678", "Secret12").
		Return(&client.AuthGrant{AuthToken: "T1", Cedula: "12345678", Name: "Ana", Cargo: "PROFESIONAL"}, nil)

	require.NoError(t, f.SubmitChangePassword(context.Background(), []byte("Secret12"), []byte("Secret12")))

	assert.Equal(t, StepAuthenticated, f.Step())
	assert.True(t, res.IsAuthenticated())
	u, ok := res.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, access.RoleProfesional, u.Role)
	assert.Equal(t, "12345678", u.Cedula)
	assert.Equal(t, "Ana", u.Name)
	_, ok = res.TemporaryToken()
	assert.False(t, ok, "temporary token is discarded")
}

func TestChangePasswordRejectedKeepsTemporaryToken(t *testing.T) {
	f, api, res := newFlow(t)
	toChangePassword(t, f, api)
	api.EXPECT().ChangePassword(gomock.Any(), "tmp", "12345678", "Secret12").
		Return(nil, &client.APIError{StatusCode: 401, Message: "Token temporal expirado"})

	fe := flowError(t, f.SubmitChangePassword(context.Background(), []byte("Secret12"), []byte("Secret12")))
	assert.Equal(t, KindRejected, fe.Kind)
	assert.Equal(t, StepChangePassword, f.Step())
	assert.False(t, res.IsAuthenticated())
	_, ok := res.TemporaryToken()
	assert.True(t, ok)
}

func TestChangePasswordWithoutTemporaryToken(t *testing.T) {
	f, api, res := newFlow(t)
	toChangePassword(t, f, api)
	require.NoError(t, res.ClearTemporaryToken())

	fe := flowError(t, f.SubmitChangePassword(context.Background(), []byte("Secret12"), []byte("Secret12")))
	assert.Equal(t, MsgTemporaryTokenMissing, fe.Message)
}

func TestBackFromPasswordSteps(t *testing.T) {
	f, api, _ := newFlow(t)
	api.EXPECT().ValidateCedula(gomock.Any(), "1").Return(&client.CedulaInfo{NextStep: "normal-login", Name: "Ana"}, nil)
	require.NoError(t, f.SubmitCedula(context.Background(), "1"))

	require.NoError(t, f.Back())
	s := f.State()
	assert.Equal(t, StepCedula, s.Step)
	assert.Empty(t, s.Name)
	assert.Equal(t, "1", s.Cedula, "entered cedula stays for editing")
}

func TestBackFromChangePasswordLeavesSessionAlone(t *testing.T) {
	f, api, res := newFlow(t)
	require.NoError(t, res.Commit(session.Identity{Cedula: "7", Name: "Old", Cargo: "PROFESIONAL"}, "OLD"))
	toChangePassword(t, f, api)

	require.NoError(t, f.Back())
	assert.Equal(t, StepTemporaryPassword, f.Step())
	_, ok := res.TemporaryToken()
	assert.False(t, ok)
	tok, ok := res.Token()
	require.True(t, ok)
	assert.Equal(t, "OLD", tok)
}

func TestResetAndClose(t *testing.T) {
	f, api, res := newFlow(t)
	toChangePassword(t, f, api)

	require.NoError(t, f.Reset())
	s := f.State()
	assert.Equal(t, StepCedula, s.Step)
	assert.Empty(t, s.Cedula)
	_, ok := res.TemporaryToken()
	assert.False(t, ok)

	f.Close()
	assert.ErrorIs(t, f.SubmitCedula(context.Background(), "1"), ErrClosed)
	assert.ErrorIs(t, f.Back(), ErrClosed)
	assert.ErrorIs(t, f.Reset(), ErrClosed)
}

func TestCloseDuringPasswordChangeDropsTemporaryToken(t *testing.T) {
	f, api, res := newFlow(t)
	require.NoError(t, res.Commit(session.Identity{Cedula: "7", Name: "Old", Cargo: "PROFESIONAL"}, "OLD"))
	toChangePassword(t, f, api)
	_, ok := res.TemporaryToken()
	require.True(t, ok)

	f.Close()
	f.Close()

	_, ok = res.TemporaryToken()
	assert.False(t, ok)
	tok, ok := res.Token()
	require.True(t, ok)
	assert.Equal(t, "OLD", tok)
}

func TestBusyAndStaleResponse(t *testing.T) {
	f, api, _ := newFlow(t)
	started := make(chan struct{})
	release := make(chan struct{})
	api.EXPECT().ValidateCedula(gomock.Any(), "1").DoAndReturn(
		func(context.Context, string) (*client.CedulaInfo, error) {
			close(started)
			<-release
			return &client.CedulaInfo{NextStep: "normal-login"}, nil
		})

	errCh := make(chan error, 1)
	go func() { errCh <- f.SubmitCedula(context.Background(), "1") }()
	<-started

	assert.True(t, f.State().Busy)
	assert.ErrorIs(t, f.SubmitCedula(context.Background(), "1"), ErrBusy)

	require.NoError(t, f.Reset())
	close(release)

	assert.ErrorIs(t, <-errCh, ErrStale)
	assert.Equal(t, StepCedula, f.Step(), "stale answer is not applied")
	assert.False(t, f.State().Busy)
}

func TestStaleLoginDoesNotCommit(t *testing.T) {
	f, api, res := newFlow(t)
	api.EXPECT().ValidateCedula(gomock.Any(), "1").Return(&client.CedulaInfo{NextStep: "normal-login"}, nil)
	require.NoError(t, f.SubmitCedula(context.Background(), "1"))

	started := make(chan struct{})
	release := make(chan struct{})
	api.EXPECT().Login(gomock.Any(), "1", "Secret12").DoAndReturn(
		func(context.Context, string, string) (*client.AuthGrant, error) {
			close(started)
			<-release
			return &client.AuthGrant{AuthToken: "T", Cedula: "1", Name: "A"}, nil
		})

	errCh := make(chan error, 1)
	go func() { errCh <- f.SubmitNormalPassword(context.Background(), []byte("Secret12")) }()
	<-started
	f.Close()
	close(release)

	assert.ErrorIs(t, <-errCh, ErrStale)
	assert.False(t, res.IsAuthenticated())
}

func TestCommitFailureStaysOnStep(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAPI(ctrl)
	store := mocks.NewMockSessionStore(ctrl)
	f := NewFlow(api, store)

	errDisk := errors.New("disk full")
	api.EXPECT().ValidateCedula(gomock.Any(), "1").Return(&client.CedulaInfo{NextStep: "normal-login"}, nil)
	api.EXPECT().Login(gomock.Any(), "1", "pw").Return(&client.AuthGrant{AuthToken: "T", Name: "A"}, nil)
	store.EXPECT().Commit(session.Identity{Cedula: "1", Name: "A"}, "T").Return(errDisk)

	require.NoError(t, f.SubmitCedula(context.Background(), "1"))
	fe := flowError(t, f.SubmitNormalPassword(context.Background(), []byte("pw")))
	assert.Equal(t, KindStorage, fe.Kind)
	assert.ErrorIs(t, fe, errDisk)
	assert.Equal(t, StepNormalPassword, f.Step())
}

func TestStepAndKindStrings(t *testing.T) {
	assert.Equal(t, "CEDULA", StepCedula.String())
	assert.Equal(t, "TEMP_PASSWORD", StepTemporaryPassword.String())
	assert.Equal(t, "NORMAL_PASSWORD", StepNormalPassword.String())
	assert.Equal(t, "CHANGE_PASSWORD", StepChangePassword.String())
	assert.Equal(t, "AUTHENTICATED", StepAuthenticated.String())
	assert.Equal(t, "Step(9)", Step(9).String())
	assert.Equal(t, "transport", KindTransport.String())
}
