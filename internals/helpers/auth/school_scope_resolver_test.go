package helper_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"schoolku_backend/internals/constants"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

func TestResolveSchoolScopeNonAdminIgnoresHints(t *testing.T) {
	own := uuid.New()
	other := uuid.New().String()

	for _, role := range []string{constants.RoleSchoolAdmin, constants.RoleTeacher, constants.RoleParent} {
		scope, err := helperAuth.ResolveSchoolScope(
			helperAuth.Identity{UserID: uuid.New(), Role: role, SchoolID: &own},
			other, other,
		)
		require.NoError(t, err, role)
		require.True(t, scope.Scoped)
		require.Equal(t, own, scope.SchoolID, role)
	}
}

func TestResolveSchoolScopeNonAdminWithoutSchool(t *testing.T) {
	_, err := helperAuth.ResolveSchoolScope(
		helperAuth.Identity{UserID: uuid.New(), Role: constants.RoleTeacher},
		uuid.New().String(), "",
	)
	require.ErrorIs(t, err, helperAuth.ErrNoSchoolAssigned)
}

func TestResolveSchoolScopeSuperAdmin(t *testing.T) {
	platform := constants.PlatformSchoolID
	admin := helperAuth.Identity{UserID: uuid.New(), Role: constants.RoleSuperAdmin, SchoolID: &platform}
	header := uuid.New()
	query := uuid.New()

	scope, err := helperAuth.ResolveSchoolScope(admin, header.String(), query.String())
	require.NoError(t, err)
	require.Equal(t, helperAuth.SchoolScope{SchoolID: header, Scoped: true}, scope)

	scope, err = helperAuth.ResolveSchoolScope(admin, "", query.String())
	require.NoError(t, err)
	require.Equal(t, query, scope.SchoolID)

	scope, err = helperAuth.ResolveSchoolScope(admin, "", "")
	require.NoError(t, err)
	require.False(t, scope.Scoped)

	_, err = helperAuth.ResolveSchoolScope(admin, "not-a-uuid", "")
	require.ErrorIs(t, err, helperAuth.ErrInvalidSchoolID)

	_, err = helperAuth.ResolveSchoolScope(admin, uuid.Nil.String(), "")
	require.ErrorIs(t, err, helperAuth.ErrInvalidSchoolID)
}
