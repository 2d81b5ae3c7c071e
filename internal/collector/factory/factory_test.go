package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ottertune/db-agent/internal/config"
)

func TestMySQLDSNReferencesRegisteredTLSConfig(t *testing.T) {
	cfg := config.DriverConfig{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: 3306, DBName: "information_schema"}
	assert.NotContains(t, mysqlDSN(cfg), "tls=")

	cfg.EnableSSL = true
	assert.Contains(t, mysqlDSN(cfg), "&tls="+mysqlTLSConfigName)
}

func TestPostgresDSNsCarrySSLFilePaths(t *testing.T) {
	cfg := config.DriverConfig{
		DBHost: "h", DBPort: 5432, DBUser: "u", DBPassword: "p",
		EnableSSL: true,
		DBSSLCA:   "/certs/ca.pem", DBSSLCert: "/certs/client.pem", DBSSLKey: "/certs/client.key",
	}
	dsn := postgresDSNs(cfg)["postgres"]
	assert.Contains(t, dsn, "sslmode=require")
	assert.Contains(t, dsn, "sslrootcert=/certs/ca.pem")
	assert.Contains(t, dsn, "sslcert=/certs/client.pem")
	assert.Contains(t, dsn, "sslkey=/certs/client.key")
}

func TestPostgresDSNsSplitCommaSeparatedDBName(t *testing.T) {
	cfg := config.DriverConfig{DBHost: "h", DBPort: 5432, DBUser: "u", DBPassword: "p", DBName: "a, b"}
	dsns := postgresDSNs(cfg)
	assert.Len(t, dsns, 2)
	assert.Contains(t, dsns["a"], "dbname=a")
	assert.Contains(t, dsns["b"], "dbname=b")
	assert.Contains(t, dsns["a"], "sslmode=disable")
}

func TestRegisterMySQLTLSConfigRejectsMissingCA(t *testing.T) {
	cfg := config.DriverConfig{EnableSSL: true, DBSSLCA: "/nonexistent/ca.pem"}
	assert.Error(t, registerMySQLTLSConfig(cfg))
}
