package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consorcioci/viernes/internal/util"
)

// testArgon2Params keeps hashing cheap in tests.
var testArgon2Params = util.Argon2idParams{Time: 1, MemoryKiB: 8, Parallelism: 1, KeyLen: 16}

func testDirectory(t *testing.T, specs ...UserSpec) *Directory {
	t.Helper()
	d := NewDirectory(WithArgon2Params(testArgon2Params))
	for _, s := range specs {
		_, err := d.Add(s)
		require.NoError(t, err)
	}
	return d
}

func TestDirectoryTemporaryPasswordLifecycle(t *testing.T) {
	d := testDirectory(t)
	temp, err := d.Add(UserSpec{Cedula: " 123 ", Name: "Ana", Cargo: "PROFESIONAL", TemporaryPassword: "Temp-0001"})
	require.NoError(t, err)
	assert.Equal(t, "Temp-0001", temp)

	u, err := d.get("123")
	require.NoError(t, err)
	assert.True(t, u.mustChange)

	_, ok := d.checkTemporary("123", "wrong")
	assert.False(t, ok)
	_, ok = d.checkPassword("123", "Temp-0001")
	assert.False(t, ok, "temporary password is not a login password")

	u, ok = d.checkTemporary("123", "Temp-0001")
	require.True(t, ok)
	assert.Equal(t, "Ana", u.name)

	_, err = d.setPassword("123", "Nueva2026")
	require.NoError(t, err)

	_, ok = d.checkTemporary("123", "Temp-0001")
	assert.False(t, ok, "temporary password retired")
	_, ok = d.checkPassword("123", "Nueva2026")
	assert.True(t, ok)
}

func TestDirectoryGeneratesTemporaryPassword(t *testing.T) {
	d := testDirectory(t)
	temp, err := d.Add(UserSpec{Cedula: "1", Name: "X"})
	require.NoError(t, err)
	assert.Len(t, temp, tempPasswordLen)
	_, ok := d.checkTemporary("1", temp)
	assert.True(t, ok)
}

func TestDirectoryRejectsInactiveAndUnknown(t *testing.T) {
	d := testDirectory(t,
		UserSpec{Cedula: "1", Name: "A", Password: "Clave2026"},
		UserSpec{Cedula: "2", Name: "B", Password: "Clave2026", Inactive: true},
	)
	_, err := d.get("2")
	assert.ErrorIs(t, err, errUserInactive)
	_, err = d.get("3")
	assert.ErrorIs(t, err, errUnknownCedula)
	_, ok := d.checkPassword("2", "Clave2026")
	assert.False(t, ok)

	_, err = d.Add(UserSpec{Cedula: "  "})
	assert.Error(t, err)
	_, err = d.setPassword("9", "Clave2026")
	assert.ErrorIs(t, err, errUnknownCedula)
	assert.Equal(t, 2, d.Len())
}

func TestDemoUsersCoverEveryRole(t *testing.T) {
	d := testDirectory(t, DemoUsers()...)
	assert.Equal(t, len(DemoUsers()), d.Len())

	_, ok := d.checkPassword("20202020", "Admin2025")
	assert.True(t, ok)
	_, err := d.get("50505050")
	assert.ErrorIs(t, err, errUserInactive)
}
