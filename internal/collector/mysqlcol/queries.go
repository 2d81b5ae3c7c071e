package mysqlcol

// System schemas excluded from every information_schema/performance_schema
// sweep: the engine's own bookkeeping is never interesting telemetry.
const excludedSchemas = `('information_schema', 'performance_schema', 'mysql', 'sys')`

const versionSQL = "SELECT VERSION();"
const knobsSQL = "SHOW GLOBAL VARIABLES;"
const metricsSQL = "SHOW GLOBAL STATUS;"
const metricsInnodbSQL = "SELECT name, count FROM information_schema.innodb_metrics WHERE subsystem = 'transaction';"

// metricsLatencyHistSQL converts picoseconds to milliseconds in-query, so the
// ingestion side never has to know the engine's internal time unit.
const metricsLatencyHistSQL = `SELECT bucket_number, bucket_timer_low / 1000000000 as bucket_timer_low,
bucket_timer_high / 1000000000 as bucket_timer_high, count_bucket,
count_bucket_and_lower, bucket_quantile FROM
performance_schema.events_statements_histogram_global;`

const queryDigestTimeSQL = `SELECT CONCAT(IFNULL(schema_name, 'NULL'), '_', digest) as queryid,
count_star as calls,
round(avg_timer_wait/1000000000, 6) as avg_time_ms
FROM performance_schema.events_statements_summary_by_digest;`

const engineInnodbSQL = "SHOW ENGINE INNODB STATUS;"
const engineMasterSQL = "SHOW MASTER STATUS;"
const engineReplicaSQLModern = "SHOW REPLICA STATUS;"
const engineReplicaSQLLegacy = "SHOW SLAVE STATUS;"

const tableLevelStatsSQLTemplate = `SELECT
  TABLE_SCHEMA, TABLE_NAME, TABLE_TYPE,
  ENGINE, ROW_FORMAT, TABLE_ROWS,
  AVG_ROW_LENGTH, DATA_LENGTH, INDEX_LENGTH,
  DATA_FREE
FROM
  information_schema.TABLES
WHERE
  TABLE_SCHEMA
NOT IN
  ` + excludedSchemas + `
AND
  TABLE_ROWS > 0
ORDER BY
  TABLE_ROWS DESC
LIMIT
  %d;`

const indexSizeSQLTemplate = `SELECT
    DATABASE_NAME, TABLE_NAME, INDEX_NAME, STAT_VALUE,
    STAT_VALUE * @@innodb_page_size AS SIZE_IN_BYTE
FROM
    mysql.innodb_index_stats
WHERE
    stat_name='size'
AND
    (DATABASE_NAME,TABLE_NAME) IN %s
ORDER BY
    SIZE_IN_BYTE DESC
LIMIT
    %d;`

const indexStatsSQLTemplate = `SELECT
    TABLE_SCHEMA,TABLE_NAME,NON_UNIQUE,
    INDEX_SCHEMA,INDEX_NAME,SEQ_IN_INDEX,COLUMN_NAME,
    COLLATION,CARDINALITY,SUB_PART,NULLABLE,INDEX_TYPE
FROM
    information_schema.STATISTICS
WHERE
    (TABLE_SCHEMA,TABLE_NAME,INDEX_NAME) IN %s;`

const indexUsageSQLTemplate = `SELECT
    OBJECT_TYPE,OBJECT_SCHEMA,OBJECT_NAME,INDEX_NAME,COUNT_STAR,
    SUM_TIMER_WAIT,COUNT_READ,SUM_TIMER_READ,COUNT_WRITE,SUM_TIMER_WRITE,
    COUNT_FETCH,SUM_TIMER_FETCH,COUNT_INSERT,SUM_TIMER_INSERT,
    COUNT_UPDATE,SUM_TIMER_UPDATE,COUNT_DELETE,SUM_TIMER_DELETE
FROM
    performance_schema.table_io_waits_summary_by_index_usage
WHERE
    OBJECT_TYPE='TABLE'
AND
    (OBJECT_SCHEMA,OBJECT_NAME,INDEX_NAME) IN %s;`

const queryStatsSQLTemplate = `SELECT
    *
FROM
    performance_schema.events_statements_summary_by_digest
ORDER BY
    COUNT_STAR DESC
LIMIT
    %d;`

const longRunningQuerySQLTemplate = `SELECT THREAD_ID, EVENT_ID, EVENT_NAME, TIMER_START, TIMER_END, TIMER_WAIT, LOCK_TIME,
    DIGEST, DIGEST_TEXT, ROWS_AFFECTED, ROWS_SENT, ROWS_EXAMINED, CREATED_TMP_DISK_TABLES,
    CREATED_TMP_TABLES, SELECT_FULL_JOIN, SELECT_FULL_RANGE_JOIN, SELECT_RANGE, SELECT_RANGE_CHECK,
    SELECT_SCAN, SORT_MERGE_PASSES, SORT_RANGE, SORT_ROWS, SORT_SCAN, NO_INDEX_USED,
    NO_GOOD_INDEX_USED
FROM
    performance_schema.events_statements_current
WHERE
    DIGEST IS NOT NULL
AND
    TIMER_WAIT > %d
LIMIT
    %d;`

const queryColumnsSchemaSQL = `SELECT
    TABLE_SCHEMA, TABLE_NAME, COLUMN_NAME, ORDINAL_POSITION, COLUMN_DEFAULT,
    IS_NULLABLE, DATA_TYPE, COLLATION_NAME, COLUMN_COMMENT
FROM
    information_schema.columns
WHERE
    table_schema
NOT IN
    ` + excludedSchemas + `
ORDER BY
    table_schema, table_name, column_name;`

const queryIndexSchemaSQL = `SELECT
    TABLE_SCHEMA, TABLE_NAME, INDEX_NAME, NON_UNIQUE,
    COLUMN_NAME, COLLATION, SUB_PART, INDEX_TYPE,
    NULLABLE, PACKED
FROM
    information_schema.statistics
WHERE
    table_schema
NOT IN
    ` + excludedSchemas + `
ORDER BY
    table_schema, table_name, index_name;`

// queryIndexColumnsSchemaSQL folds each index's columns into one
// comma-joined list, preserving SEQ_IN_INDEX order.
const queryIndexColumnsSchemaSQL = `SELECT
    TABLE_SCHEMA, TABLE_NAME, INDEX_NAME,
    GROUP_CONCAT(COLUMN_NAME ORDER BY SEQ_IN_INDEX SEPARATOR ',') AS COLUMN_NAMES
FROM
    information_schema.statistics
WHERE
    table_schema
NOT IN
    ` + excludedSchemas + `
GROUP BY
    table_schema, table_name, index_name
ORDER BY
    table_schema, table_name, index_name;`

const queryForeignKeySchemaSQL = `SELECT
    CONSTRAINT_SCHEMA, TABLE_NAME, CONSTRAINT_NAME, UNIQUE_CONSTRAINT_SCHEMA,
    UNIQUE_CONSTRAINT_NAME, UPDATE_RULE, DELETE_RULE, REFERENCED_TABLE_NAME
FROM
    information_schema.referential_constraints
WHERE
    constraint_schema
NOT IN
    ` + excludedSchemas + `
ORDER BY
    constraint_schema, table_name, constraint_name;`

const queryTableSchemaSQL = `SELECT
    TABLE_SCHEMA, TABLE_NAME, TABLE_TYPE, ENGINE, VERSION, ROW_FORMAT,
    TABLE_ROWS, MAX_DATA_LENGTH, TABLE_COLLATION, CREATE_OPTIONS,
    TABLE_COMMENT
FROM
    information_schema.tables
WHERE
    table_schema
NOT IN
    ` + excludedSchemas + `
ORDER BY
    table_schema, table_name;`

const queryViewSchemaSQL = `SELECT TABLE_SCHEMA, TABLE_NAME, VIEW_DEFINITION, IS_UPDATABLE, CHECK_OPTION,
    SECURITY_TYPE
FROM
    information_schema.views
WHERE
    table_schema
NOT IN
    ` + excludedSchemas + `
ORDER BY table_schema, table_name, view_definition;`
