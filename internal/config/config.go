package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"loan-workflow-engine/internal/domain/loan"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	AppPort string

	DBDriver   string // mysql | sqlite
	MySQLHost  string
	MySQLPort  string
	MySQLDB    string
	MySQLUser  string
	MySQLPass  string
	SQLitePath string
	DBLogLevel string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int
	JWTSecret    string

	LockWait     time.Duration
	RiskCacheTTL time.Duration

	SettlementTolerance decimal.Decimal
	OverpaymentMargin   decimal.Decimal

	GuaranteeMode    string
	MinGuarantors    int
	MinCoverageRatio decimal.Decimal
	AnchorScheduleAt string // submission | disbursement

	invalid []string
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func (c *Config) getint(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.invalid = append(c.invalid, k)
		return d
	}
	return n
}

func (c *Config) getdec(k, d string) decimal.Decimal {
	v, err := decimal.NewFromString(getenv(k, d))
	if err != nil {
		c.invalid = append(c.invalid, k)
		return decimal.RequireFromString(d)
	}
	return v
}

// Load reads an optional .env file and then the environment. Values already
// set in the environment win over .env.
func Load() *Config {
	_ = godotenv.Load()

	c := &Config{
		AppPort:    getenv("APP_PORT", "8080"),
		DBDriver:   getenv("DB_DRIVER", "mysql"),
		MySQLHost:  getenv("MYSQL_HOST", "mysql"),
		MySQLPort:  getenv("MYSQL_PORT", "3306"),
		MySQLDB:    getenv("MYSQL_DB", "loans"),
		MySQLUser:  getenv("MYSQL_USER", "loans"),
		MySQLPass:  getenv("MYSQL_PASS", "loans"),
		SQLitePath: getenv("SQLITE_PATH", "loans.db"),
		DBLogLevel: getenv("DB_LOG_LEVEL", "warn"),

		RedisAddr: getenv("REDIS_ADDR", "redis:6379"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		GuaranteeMode:    getenv("GUARANTEE_MODE", string(loan.GuaranteeAmountFirst)),
		AnchorScheduleAt: getenv("ANCHOR_SCHEDULE_AT", "disbursement"),
	}
	c.RedisDB = c.getint("REDIS_DB", 0)
	c.IdempTTLSecs = c.getint("IDEMPOTENCY_TTL_SECONDS", 300)
	c.LockWait = time.Duration(c.getint("LOCK_WAIT_MS", 3000)) * time.Millisecond
	c.RiskCacheTTL = time.Duration(c.getint("RISK_CACHE_TTL_SECONDS", 60)) * time.Second
	c.SettlementTolerance = c.getdec("SETTLEMENT_TOLERANCE", "0.01")
	c.OverpaymentMargin = c.getdec("OVERPAYMENT_MARGIN", "0")
	c.MinGuarantors = c.getint("MIN_GUARANTORS", 0)
	c.MinCoverageRatio = c.getdec("MIN_COVERAGE_RATIO", "0")
	return c
}

func (c *Config) Validate() error {
	if len(c.invalid) > 0 {
		return fmt.Errorf("invalid value for %s", strings.Join(c.invalid, ", "))
	}
	switch c.DBDriver {
	case "mysql":
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.JWTSecret == "" {
		return errors.New("missing JWT_SECRET")
	}
	if c.SettlementTolerance.IsNegative() || c.OverpaymentMargin.IsNegative() || c.MinCoverageRatio.IsNegative() {
		return errors.New("SETTLEMENT_TOLERANCE, OVERPAYMENT_MARGIN and MIN_COVERAGE_RATIO must not be negative")
	}
	if c.MinGuarantors < 0 {
		return errors.New("MIN_GUARANTORS must not be negative")
	}
	if c.AnchorScheduleAt != "submission" && c.AnchorScheduleAt != "disbursement" {
		return fmt.Errorf("ANCHOR_SCHEDULE_AT must be submission or disbursement, got %q", c.AnchorScheduleAt)
	}
	if _, err := loan.ParseGuaranteeMode(c.GuaranteeMode); err != nil {
		return err
	}
	return nil
}

// Policy is the loan submission policy described by the config.
func (c *Config) Policy() (loan.Policy, error) {
	mode, err := loan.ParseGuaranteeMode(c.GuaranteeMode)
	if err != nil {
		return loan.Policy{}, err
	}
	return loan.Policy{
		GuaranteeMode:      mode,
		MinGuarantors:      c.MinGuarantors,
		MinCoverageRatio:   c.MinCoverageRatio,
		AnchorAtSubmission: c.AnchorScheduleAt == "submission",
	}, nil
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME; loc=UTC keeps due dates stable
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
