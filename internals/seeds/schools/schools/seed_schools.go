package school

import (
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schoolku_backend/internals/constants"
	"schoolku_backend/internals/features/school/academics/model"
)

const (
	PlatformSchoolCode = "PLATFORM"
	PlatformSchoolName = "Platform"
)

type SchoolSeed struct {
	SchoolID   string `json:"school_id"`
	SchoolCode string `json:"school_code"`
	SchoolName string `json:"school_name"`
}

// SeedPlatformSchool makes sure the reserved SUPER_ADMIN tenant exists.
func SeedPlatformSchool(db *gorm.DB) error {
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.SchoolModel{
		SchoolID:   constants.PlatformSchoolID,
		SchoolCode: PlatformSchoolCode,
		SchoolName: PlatformSchoolName,
	}).Error
}

// SeedSchoolsFromJSON inserts schools by code, skipping codes that already exist.
func SeedSchoolsFromJSON(db *gorm.DB, filePath string, log *zap.Logger) error {
	file, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	var seeds []SchoolSeed
	if err := json.Unmarshal(file, &seeds); err != nil {
		return err
	}

	for _, s := range seeds {
		row := model.SchoolModel{SchoolCode: s.SchoolCode, SchoolName: s.SchoolName}
		if s.SchoolID != "" {
			id, err := uuid.Parse(s.SchoolID)
			if err != nil {
				log.Warn("skip school seed with bad id", zap.String("code", s.SchoolCode))
				continue
			}
			row.SchoolID = id
		}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return err
		}
		log.Info("school seeded", zap.String("code", s.SchoolCode))
	}
	return nil
}
