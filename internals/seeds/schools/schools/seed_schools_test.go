package school_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"schoolku_backend/internals/constants"
	"schoolku_backend/internals/databases/dbtest"
	"schoolku_backend/internals/features/school/academics/model"
	school "schoolku_backend/internals/seeds/schools/schools"
)

func TestSeedPlatformSchoolIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, school.SeedPlatformSchool(db))
	require.NoError(t, school.SeedPlatformSchool(db))

	var rows []model.SchoolModel
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, constants.PlatformSchoolID, rows[0].SchoolID)
	require.Equal(t, school.PlatformSchoolCode, rows[0].SchoolCode)
}

func TestSeedSchoolsFromJSON(t *testing.T) {
	db := dbtest.Open(t)
	path := filepath.Join(t.TempDir(), "schools.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"school_id":"6f1c2b1e-8f0a-4a55-9d3e-3b0b4c1d2e01","school_code":"OAK","school_name":"Oak Public School"},
		{"school_code":"PINE","school_name":"Pine Academy"},
		{"school_id":"bad","school_code":"BAD","school_name":"Skipped"}
	]`), 0o600))

	log := zaptest.NewLogger(t)
	require.NoError(t, school.SeedSchoolsFromJSON(db, path, log))
	require.NoError(t, school.SeedSchoolsFromJSON(db, path, log))

	var codes []string
	require.NoError(t, db.Model(&model.SchoolModel{}).Order("school_code").Pluck("school_code", &codes).Error)
	require.Equal(t, []string{"OAK", "PINE"}, codes)
}
