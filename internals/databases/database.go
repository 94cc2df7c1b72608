package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"schoolku_backend/internals/configs"
	academicsModel "schoolku_backend/internals/features/school/academics/model"
	attendanceModel "schoolku_backend/internals/features/school/attendance/model"
	authModel "schoolku_backend/internals/features/users/auth/model"
	userModel "schoolku_backend/internals/features/users/user/model"
)

var DB *gorm.DB

func ConnectDB(log *zap.Logger) {
	log.Info("connecting to PostgreSQL")

	// statement_timeout keeps a stuck attendance transaction from holding the section row lock
	sslmode := getenv("DB_SSLMODE", "require")
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=schoolku&options=-c statement_timeout=5000",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		getenv("DB_PORT", "5432"),
		os.Getenv("DB_NAME"),
		sslmode,
	)
	if url := os.Getenv("DATABASE_URL"); url != "" {
		dsn = url
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // PgBouncer transaction pooling
	}), &gorm.Config{
		Logger: configs.NewGormLogger(log),
	})
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	DB = db
	log.Info("db connected")
}

func TunePool(log *zap.Logger) {
	sqlDB, err := DB.DB()
	if err != nil {
		log.Warn("pool tune failed", zap.Error(err))
		return
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

func WarmUpQueries(log *zap.Logger) {
	go func() {
		time.Sleep(500 * time.Millisecond)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := Ping(ctx, DB); err != nil {
			log.Warn("warm-up ping failed", zap.Error(err))
		}
	}()
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Models lists every table the service owns, in dependency order.
func Models() []any {
	return []any{
		&academicsModel.SchoolModel{},
		&academicsModel.ClassModel{},
		&academicsModel.SectionModel{},
		&academicsModel.StudentModel{},
		&academicsModel.TeacherModel{},
		&academicsModel.TeacherAssignmentModel{},
		&academicsModel.ParentStudentModel{},
		&userModel.UserModel{},
		&authModel.OneTimeCodeModel{},
		&authModel.OTPRateLimitModel{},
		&authModel.TrustedDeviceModel{},
		&authModel.TokenBlacklistModel{},
		&attendanceModel.SectionAttendanceRecordModel{},
		&attendanceModel.AttendanceModel{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
