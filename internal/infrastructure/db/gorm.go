package db

import (
	"fmt"
	"strings"
	"time"

	"loan-workflow-engine/internal/domain/approval"
	"loan-workflow-engine/internal/domain/loan"
	"loan-workflow-engine/internal/domain/member"
	"loan-workflow-engine/internal/domain/repayment"

	"github.com/labstack/gommon/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options selects the driver and SQL log level.
type Options struct {
	Driver      string // mysql | sqlite
	DSN         string // mysql DSN or sqlite path
	LogLevel    string // silent | error | warn | info
	AutoMigrate bool
}

func ParseLogLevel(s string) logger.LogLevel {
	switch strings.ToLower(s) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	}
	return logger.Warn
}

func Dialector(o Options) (gorm.Dialector, error) {
	switch o.Driver {
	case "mysql":
		return mysql.Open(o.DSN), nil
	case "sqlite":
		return sqlite.Open(o.DSN), nil
	}
	return nil, fmt.Errorf("unknown db driver %q", o.Driver)
}

func OpenGorm(o Options) (*gorm.DB, error) {
	dial, err := Dialector(o)
	if err != nil {
		return nil, err
	}
	gdb, err := OpenGormWithDialector(dial, ParseLogLevel(o.LogLevel))
	if err != nil {
		return nil, err
	}
	if o.AutoMigrate {
		if err := Migrate(gdb); err != nil {
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return gdb, nil
}

// OpenGormWithDialector opens, tunes the pool and pings.
func OpenGormWithDialector(dial gorm.Dialector, level ...logger.LogLevel) (*gorm.DB, error) {
	lvl := logger.Warn
	if len(level) > 0 {
		lvl = level[0]
	}
	cfg := &gorm.Config{
		Logger:  logger.Default.LogMode(lvl),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
	gdb, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if dial.Name() == "sqlite" {
		// sqlite serialises writers; one connection avoids SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(30)
		sqlDB.SetMaxIdleConns(10)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	log.Infof("gorm: connected (%s)", dial.Name())
	return gdb, nil
}

// Models lists every table owned or read by the service.
func Models() []any {
	return []any{
		&loan.Loan{}, &loan.Installment{}, &loan.Guarantor{}, &loan.Collateral{},
		&repayment.Record{},
		&approval.Request{}, &approval.StageDecision{},
		&member.Member{},
	}
}

func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(Models()...)
}
