package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softex1/tably-paket1/models"
	"github.com/softex1/tably-paket1/utils"
)

const strongPassword = "Sup3r!Secret"

func newAuthFixture(t *testing.T) (*AuthService, *GormAttemptStore, *fakeClock) {
	t.Helper()
	db := setupTestDB(t)
	clock := newFakeClock()
	store := NewGormAttemptStore(db, 3, 15*time.Minute)
	store.Now = clock.Now
	return NewAuthService(db, store, "test-secret", time.Hour), store, clock
}

func TestLogin(t *testing.T) {
	auth, _, _ := newAuthFixture(t)
	ctx := context.Background()

	admin, err := auth.CreateAdmin(ctx, "manager", strongPassword)
	require.NoError(t, err)
	assert.NotEqual(t, strongPassword, admin.Password)

	res, err := auth.Login(ctx, "manager", strongPassword)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, res.AdminID)

	claims, err := utils.ParseToken([]byte("test-secret"), res.Token)
	require.NoError(t, err)
	assert.Equal(t, "manager", claims.Username)

	_, err = auth.Login(ctx, "manager", "wrong")
	assert.Equal(t, utils.KindUnauthenticated, utils.KindOf(err))
	_, err = auth.Login(ctx, "ghost", strongPassword)
	assert.Equal(t, utils.KindUnauthenticated, utils.KindOf(err))
	_, err = auth.Login(ctx, "", "")
	assert.Equal(t, utils.KindInvalidArgument, utils.KindOf(err))
}

func TestLoginLockout(t *testing.T) {
	auth, _, clock := newAuthFixture(t)
	ctx := context.Background()
	_, err := auth.CreateAdmin(ctx, "manager", strongPassword)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = auth.Login(ctx, "manager", "nope")
		require.Equal(t, utils.KindUnauthenticated, utils.KindOf(err))
	}
	_, err = auth.Login(ctx, "manager", "nope")
	require.Equal(t, utils.KindLocked, utils.KindOf(err))

	// even the right password is refused while locked
	_, err = auth.Login(ctx, "manager", strongPassword)
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindLocked, appErr.Kind)
	assert.Equal(t, 15*time.Minute, appErr.RetryAfter)

	clock.Advance(15 * time.Minute)
	_, err = auth.Login(ctx, "manager", strongPassword)
	assert.NoError(t, err)
}

func TestLoginSuccessResetsFailures(t *testing.T) {
	auth, store, _ := newAuthFixture(t)
	ctx := context.Background()
	_, err := auth.CreateAdmin(ctx, "manager", strongPassword)
	require.NoError(t, err)

	_, _ = auth.Login(ctx, "manager", "nope")
	_, _ = auth.Login(ctx, "manager", "nope")
	_, err = auth.Login(ctx, "manager", strongPassword)
	require.NoError(t, err)

	var count int64
	require.NoError(t, store.DB.Model(&models.LoginAttempt{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateAdminValidation(t *testing.T) {
	auth, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := auth.CreateAdmin(ctx, "ab", strongPassword)
	assert.Equal(t, utils.KindInvalidArgument, utils.KindOf(err))
	_, err = auth.CreateAdmin(ctx, "manager", "password1!A")
	assert.Equal(t, utils.KindInvalidArgument, utils.KindOf(err))
	_, err = auth.CreateAdmin(ctx, "manager", "alllowercase1!")
	assert.Equal(t, utils.KindInvalidArgument, utils.KindOf(err))

	_, err = auth.CreateAdmin(ctx, "manager", strongPassword)
	require.NoError(t, err)
	_, err = auth.CreateAdmin(ctx, "manager", strongPassword)
	assert.Equal(t, utils.KindConflict, utils.KindOf(err))
}

func TestChangePassword(t *testing.T) {
	auth, _, _ := newAuthFixture(t)
	ctx := context.Background()
	admin, err := auth.CreateAdmin(ctx, "manager", strongPassword)
	require.NoError(t, err)

	err = auth.ChangePassword(ctx, admin.ID, "wrong", "N3w!Password")
	assert.Equal(t, utils.KindPermissionDenied, utils.KindOf(err))
	err = auth.ChangePassword(ctx, admin.ID, strongPassword, strongPassword)
	assert.Equal(t, utils.KindInvalidArgument, utils.KindOf(err))

	require.NoError(t, auth.ChangePassword(ctx, admin.ID, strongPassword, "N3w!Password"))
	_, err = auth.Login(ctx, "manager", "N3w!Password")
	assert.NoError(t, err)
}

func TestDeleteAdminAndVerifyPassword(t *testing.T) {
	auth, _, _ := newAuthFixture(t)
	ctx := context.Background()
	a, err := auth.CreateAdmin(ctx, "alice", strongPassword)
	require.NoError(t, err)
	b, err := auth.CreateAdmin(ctx, "bobby", strongPassword)
	require.NoError(t, err)

	assert.NoError(t, auth.VerifyPassword(ctx, a.ID, strongPassword))
	assert.Equal(t, utils.KindPermissionDenied, utils.KindOf(auth.VerifyPassword(ctx, a.ID, "")))

	assert.Equal(t, utils.KindInvalidArgument, utils.KindOf(auth.DeleteAdmin(ctx, a.ID, a.ID)))
	require.NoError(t, auth.DeleteAdmin(ctx, b.ID, a.ID))
	assert.Equal(t, utils.KindNotFound, utils.KindOf(auth.DeleteAdmin(ctx, b.ID, a.ID)))

	admins, err := auth.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "alice", admins[0].Username)
}
