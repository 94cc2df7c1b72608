package seeds

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	school "schoolku_backend/internals/seeds/schools/schools"
)

// RunAllSeeds is safe to run on every boot.
func RunAllSeeds(db *gorm.DB, schoolsFile string, log *zap.Logger) {
	if err := school.SeedPlatformSchool(db); err != nil {
		log.Error("seed platform school failed", zap.Error(err))
	}
	if schoolsFile == "" {
		return
	}
	if err := school.SeedSchoolsFromJSON(db, schoolsFile, log); err != nil {
		log.Error("seed schools failed", zap.String("file", schoolsFile), zap.Error(err))
	}
}
