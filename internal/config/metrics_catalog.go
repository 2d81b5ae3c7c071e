package config

import (
	"strconv"
	"strings"
)

// MetricsCatalogKey derives the "{db_type}-{db_version}" catalog filename
// stem per the engine-specific normalization rules:
//
//   - aurora_postgresql keeps only the major version
//   - aurora_mysql keeps release_major
//   - postgres drops the minor version except for 9_6
//   - mysql keeps release_major only
//
// dbVersion is expected already normalized (dots/dashes -> underscore).
func MetricsCatalogKey(dbType DBType, dbVersion string) string {
	parts := strings.Split(dbVersion, "_")

	switch dbType {
	case DBTypeAuroraPostgreSQL:
		return string(dbType) + "-" + major(parts)
	case DBTypeAuroraMySQL:
		return string(dbType) + "-" + releaseMajor(parts)
	case DBTypePostgres:
		if len(parts) >= 2 && parts[0] == "9" && parts[1] == "6" {
			return string(dbType) + "-9_6"
		}
		return string(dbType) + "-" + major(parts)
	case DBTypeMySQL:
		return string(dbType) + "-" + releaseMajor(parts)
	default:
		return string(dbType) + "-" + dbVersion
	}
}

// major returns the leading numeric component, e.g. "13" from ["13","4"].
func major(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// releaseMajor returns "major_minor" when both are present and numeric,
// otherwise falls back to major alone.
func releaseMajor(parts []string) string {
	if len(parts) >= 2 {
		if _, err := strconv.Atoi(parts[1]); err == nil {
			return parts[0] + "_" + parts[1]
		}
	}
	return major(parts)
}
