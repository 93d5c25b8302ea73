// Package db provides relational database configuration options.
package db

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/knowledge-hub/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains relational database configuration. Driver selects the
// gorm dialector: postgres, mysql or sqlite.
type Options struct {
	Driver                string        `json:"driver" mapstructure:"driver"`
	Host                  string        `json:"host" mapstructure:"host"`
	Port                  int           `json:"port" mapstructure:"port"`
	Username              string        `json:"username" mapstructure:"username"`
	Password              string        `json:"password" mapstructure:"password"`
	Database              string        `json:"database" mapstructure:"database"`
	SSLMode               string        `json:"ssl-mode" mapstructure:"ssl-mode"`
	Path                  string        `json:"path" mapstructure:"path"` // sqlite file path
	MaxIdleConnections    int           `json:"max-idle-connections" mapstructure:"max-idle-connections"`
	MaxOpenConnections    int           `json:"max-open-connections" mapstructure:"max-open-connections"`
	MaxConnectionLifeTime time.Duration `json:"max-connection-life-time" mapstructure:"max-connection-life-time"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Driver:                "sqlite",
		Host:                  "127.0.0.1",
		Port:                  5432,
		Username:              "postgres",
		SSLMode:               "disable",
		Path:                  "knowledge-hub.db",
		MaxIdleConnections:    10,
		MaxOpenConnections:    100,
		MaxConnectionLifeTime: 10 * time.Second,
	}
}

// AddFlags adds flags for database options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...)
	fs.StringVar(&o.Driver, p+"db.driver", o.Driver, "Database driver (postgres|mysql|sqlite)")
	fs.StringVar(&o.Host, p+"db.host", o.Host, "Database host")
	fs.IntVar(&o.Port, p+"db.port", o.Port, "Database port")
	fs.StringVar(&o.Username, p+"db.username", o.Username, "Database username")
	fs.StringVar(&o.Password, p+"db.password", o.Password, "Database password")
	fs.StringVar(&o.Database, p+"db.database", o.Database, "Database name")
	fs.StringVar(&o.SSLMode, p+"db.ssl-mode", o.SSLMode, "PostgreSQL SSL mode")
	fs.StringVar(&o.Path, p+"db.path", o.Path, "SQLite database file path")
	fs.IntVar(&o.MaxIdleConnections, p+"db.max-idle-connections", o.MaxIdleConnections, "Max idle connections")
	fs.IntVar(&o.MaxOpenConnections, p+"db.max-open-connections", o.MaxOpenConnections, "Max open connections")
	fs.DurationVar(&o.MaxConnectionLifeTime, p+"db.max-connection-life-time", o.MaxConnectionLifeTime, "Max connection life time")
}

// Validate checks if the options are valid.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Driver {
	case "postgres", "mysql":
		if o.Database == "" {
			errs = append(errs, fmt.Errorf("db database is required for driver %q", o.Driver))
		}
	case "sqlite":
		if o.Path == "" {
			errs = append(errs, fmt.Errorf("db path is required for sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported db driver %q", o.Driver))
	}
	return errs
}

// DSN builds the driver-specific data source name.
func (o *Options) DSN() string {
	switch o.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			o.Host, o.Port, o.Username, o.Password, o.Database, o.SSLMode)
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			o.Username, o.Password, o.Host, o.Port, o.Database)
	default:
		return o.Path
	}
}
