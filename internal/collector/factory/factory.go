// Package factory builds a collector.Collector for a resolved DriverConfig,
// choosing the engine implementation by db_type (mock is selected only by
// db_type == mock; no environment variable selects it). It is kept out of package
// collector itself because every engine implementation already imports
// collector for the shared result types, and this package imports all three
// engine implementations.
package factory

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ottertune/db-agent/internal/collector"
	"github.com/ottertune/db-agent/internal/collector/mockcol"
	"github.com/ottertune/db-agent/internal/collector/mysqlcol"
	"github.com/ottertune/db-agent/internal/collector/pgcol"
	"github.com/ottertune/db-agent/internal/config"
)

// New opens a collector scoped to a single dispatcher invocation:
// MySQL/Aurora-MySQL get one connection, PostgreSQL/Aurora-PostgreSQL
// get one connection per logical database, mock gets none. The returned
// collector's Close releases whatever was opened.
func New(ctx context.Context, cfg config.DriverConfig, log logrus.FieldLogger) (collector.Collector, error) {
	switch cfg.DBType {
	case config.DBTypeMySQL, config.DBTypeAuroraMySQL:
		if cfg.EnableSSL {
			if err := registerMySQLTLSConfig(cfg); err != nil {
				return nil, errors.Wrap(err, "register mysql tls config")
			}
		}
		dsn := mysqlDSN(cfg)
		c, err := mysqlcol.New(ctx, dsn)
		if err != nil {
			return nil, errors.Wrap(err, "open mysql collector")
		}
		return c, nil

	case config.DBTypePostgres, config.DBTypeAuroraPostgreSQL:
		dsns := postgresDSNs(cfg)
		c, err := pgcol.New(ctx, dsns, log)
		if err != nil {
			return nil, errors.Wrap(err, "open postgres collector")
		}
		return c, nil

	case config.DBTypeMock:
		return mockcol.New(cfg.DBVersion), nil

	default:
		return nil, errors.Errorf("factory: unrecognized db_type %q", cfg.DBType)
	}
}

// WithTokenMinter wraps New so that, when enable_aws_iam_auth is set, the
// config's db_password is replaced with a freshly minted token immediately
// before every connection rather than only at config-build time. A nil
// minter leaves the password from the config builder in place.
func WithTokenMinter(minter config.TokenMinter) func(context.Context, config.DriverConfig, logrus.FieldLogger) (collector.Collector, error) {
	return func(ctx context.Context, cfg config.DriverConfig, log logrus.FieldLogger) (collector.Collector, error) {
		if cfg.EnableAWSIAMAuth && minter != nil {
			token, err := minter.MintAuthToken(ctx, cfg.DBHost, cfg.DBPort, cfg.DBUser)
			if err != nil {
				return nil, errors.Wrap(err, "mint iam auth token")
			}
			cfg.DBPassword = token
		}
		return New(ctx, cfg, log)
	}
}

// mysqlTLSConfigName is the registered name the DSN's tls parameter refers
// to; re-registering under the same name replaces the previous config, so a
// reconfiguration with new certificate paths takes effect on the next tick.
const mysqlTLSConfigName = "custom"

// registerMySQLTLSConfig builds a tls.Config from the configured CA and
// client certificate paths and registers it with the driver under
// mysqlTLSConfigName, so mysqlDSN's tls parameter resolves to it.
func registerMySQLTLSConfig(cfg config.DriverConfig) error {
	tlsCfg := &tls.Config{}

	if cfg.DBSSLCA != "" {
		pem, err := os.ReadFile(cfg.DBSSLCA)
		if err != nil {
			return errors.Wrapf(err, "read ssl ca %s", cfg.DBSSLCA)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return errors.Errorf("no certificates found in %s", cfg.DBSSLCA)
		}
		tlsCfg.RootCAs = pool
	}

	if cfg.DBSSLCert != "" && cfg.DBSSLKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.DBSSLCert, cfg.DBSSLKey)
		if err != nil {
			return errors.Wrap(err, "load ssl client certificate pair")
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}

	return mysql.RegisterTLSConfig(mysqlTLSConfigName, tlsCfg)
}

// mysqlDSN builds a go-sql-driver/mysql DSN from the resolved config,
// referencing the registered TLS config when SSL is enabled.
func mysqlDSN(cfg config.DriverConfig) string {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&interpolateParams=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if cfg.EnableSSL {
		dsn += "&tls=" + mysqlTLSConfigName
	}
	return dsn
}

// postgresDSNs builds one lib/pq DSN per logical database. db_name may be a
// comma-separated list (mirrored into PostgresDBList by the config's env
// layer); otherwise a single name, defaulting to "postgres".
func postgresDSNs(cfg config.DriverConfig) map[string]string {
	names := cfg.PostgresDBList
	if len(names) == 0 {
		name := cfg.DBName
		if name == "" {
			name = "postgres"
		}
		names = strings.Split(name, ",")
	}

	sslParams := "sslmode=disable"
	if cfg.EnableSSL {
		sslParams = "sslmode=require"
		if cfg.DBSSLCA != "" {
			sslParams += " sslrootcert=" + cfg.DBSSLCA
		}
		if cfg.DBSSLCert != "" {
			sslParams += " sslcert=" + cfg.DBSSLCert
		}
		if cfg.DBSSLKey != "" {
			sslParams += " sslkey=" + cfg.DBSSLKey
		}
	}

	dsns := make(map[string]string, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		dsns[name] = fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s %s",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, name, sslParams,
		)
	}
	return dsns
}
