package postgres

import (
	"fmt"
	"log/slog"
	"time"

	"pharmadelivery/internal/adapters/out/postgres/appointmentrepo"
	"pharmadelivery/internal/adapters/out/postgres/catalogrepo"
	"pharmadelivery/internal/adapters/out/postgres/courierrepo"
	"pharmadelivery/internal/adapters/out/postgres/orderrepo"

	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to dsn. Driver errors are translated so that unique
// violations surface as gorm.ErrDuplicatedKey.
func Open(dsn string, log *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger: logger.New(slogWriter{log}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			IgnoreRecordNotFoundError: true,
			LogLevel:                  logger.Warn,
			Colorful:                  false,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table the repositories use.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&courierrepo.CourierDTO{},
		&catalogrepo.PharmacyDTO{},
		&catalogrepo.MedicineDTO{},
		&catalogrepo.DoctorDTO{},
		&appointmentrepo.AppointmentDTO{},
	)
}

// slogWriter routes GORM's slow-query and error lines into the service log.
type slogWriter struct {
	log *slog.Logger
}

func (w slogWriter) Printf(format string, args ...any) {
	w.log.Warn(fmt.Sprintf(format, args...))
}
