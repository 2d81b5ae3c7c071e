package pgcol

const excludedSchemasPredicate = `n.nspname <> 'pg_catalog' AND n.nspname <> 'information_schema' AND n.nspname !~ '^pg_toast'`

const knobsSQL = "SELECT name, setting FROM pg_settings;"

const rowNumStatSQL = `SELECT
  count(*) as num_tables,
  count(nullif(n_live_tup = 0, false)) as num_empty_tables,
  count(nullif(n_live_tup > 0 and n_live_tup <= 1e4, false)) as num_tables_row_count_0_10k,
  count(nullif(n_live_tup > 1e4 and n_live_tup <= 1e5, false)) as num_tables_row_count_10k_100k,
  count(nullif(n_live_tup > 1e5 and n_live_tup <= 1e6, false)) as num_tables_row_count_100k_1m,
  count(nullif(n_live_tup > 1e6 and n_live_tup <= 1e7, false)) as num_tables_row_count_1m_10m,
  count(nullif(n_live_tup > 1e7 and n_live_tup <= 1e8, false)) as num_tables_row_count_10m_100m,
  count(nullif(n_live_tup > 1e8, false)) as num_tables_row_count_100m_inf,
  max(n_live_tup) as max_row_num,
  min(n_live_tup) as min_row_num
FROM
  pg_stat_user_tables;`

const databaseStatSQL = `SELECT
  sum(numbackends) as numbackends, sum(xact_commit) as xact_commit,
  sum(xact_rollback) as xact_rollback, sum(blks_read) as blks_read,
  sum(blks_hit) as blks_hit, sum(tup_returned) as tup_returned,
  sum(tup_fetched) as tup_fetched, sum(tup_inserted) as tup_inserted,
  sum(tup_updated) as tup_updated, sum(tup_deleted) as tup_deleted,
  sum(conflicts) as conflicts, sum(temp_files) as temp_files,
  sum(temp_bytes) as temp_bytes, sum(deadlocks) as deadlocks,
  sum(blk_read_time) as blk_read_time, sum(blk_write_time) as blk_write_time
FROM pg_stat_database;`

const databaseConflictsStatSQL = `SELECT
  sum(confl_tablespace) as confl_tablespace, sum(confl_lock) as confl_lock,
  sum(confl_snapshot) as confl_snapshot, sum(confl_bufferpin) as confl_bufferpin,
  sum(confl_deadlock) as confl_deadlock
FROM pg_stat_database_conflicts;`

const tableStatSQL = `SELECT
  sum(seq_scan) as seq_scan, sum(seq_tup_read) as seq_tup_read,
  sum(idx_scan) as idx_scan, sum(idx_tup_fetch) as idx_tup_fetch,
  sum(n_tup_ins) as n_tup_ins, sum(n_tup_upd) as n_tup_upd,
  sum(n_tup_del) as n_tup_del, sum(n_tup_hot_upd) as n_tup_hot_upd,
  sum(n_live_tup) as n_live_tup, sum(n_dead_tup) as n_dead_tup,
  sum(n_mod_since_analyze) as n_mod_since_analyze, sum(vacuum_count) as vacuum_count,
  sum(autovacuum_count) as autovacuum_count, sum(analyze_count) as analyze_count,
  sum(autoanalyze_count) as autoanalyze_count
FROM pg_stat_user_tables;`

const tableStatIOSQL = `SELECT
  sum(heap_blks_read) as heap_blks_read, sum(heap_blks_hit) as heap_blks_hit,
  sum(idx_blks_read) as idx_blks_read, sum(idx_blks_hit) as idx_blks_hit,
  sum(toast_blks_read) as toast_blks_read, sum(toast_blks_hit) as toast_blks_hit,
  sum(tidx_blks_read) as tidx_blks_read, sum(tidx_blks_hit) as tidx_blks_hit
FROM pg_statio_user_tables;`

const indexStatSQL = `SELECT
  sum(idx_scan) as idx_scan, sum(idx_tup_read) as idx_tup_read,
  sum(idx_tup_fetch) as idx_tup_fetch
FROM pg_stat_user_indexes;`

const indexStatIOSQL = `SELECT
  sum(idx_blks_read) as idx_blks_read, sum(idx_blks_hit) as idx_blks_hit
FROM pg_statio_user_indexes;`

const vacuumActivityStatSQL = `SELECT
  usename, datid, datname, pid, wait_event_type, wait_event, state, query
FROM pg_stat_activity
WHERE query ilike '%vacuum %' and pid not in (select pg_backend_pid());`

const vacuumProgressStatSQL = `SELECT * FROM pg_stat_progress_vacuum;`

const vacuumUserTablesStatSQL = `SELECT relid, last_autovacuum, n_dead_tup, relname
FROM pg_stat_user_tables
WHERE relid in (SELECT relid from pg_stat_progress_vacuum);`

const statStatementsModuleExistsSQL = `SELECT count(*) FROM pg_extension where extname='pg_stat_statements';`

const topNLargestTablesSQLTemplate = `SELECT relid FROM pg_stat_user_tables
WHERE n_live_tup > 0
ORDER BY n_live_tup DESC LIMIT %d;`

const topNLargestIndexesSQLTemplate = `SELECT indexrelid, pg_relation_size(indexrelid) as index_size
FROM pg_stat_user_indexes
WHERE relid IN %s
ORDER BY index_size DESC LIMIT %d;`

const pgStatUserTablesTemplate = `SELECT * FROM pg_stat_user_tables WHERE relid IN %s;`
const pgStatioUserTablesTemplate = `SELECT * FROM pg_statio_user_tables WHERE relid IN %s;`
const tableSizeTemplate = `SELECT relid, pg_indexes_size(relid) as indexes_size,
pg_relation_size(relid) as relation_size,
pg_table_size(relid) - pg_relation_size(relid) as toast_size
FROM pg_stat_user_tables WHERE relid IN %s;`

const pgStatUserIndexesTemplate = `SELECT * FROM pg_stat_user_indexes WHERE indexrelid IN %s;`
const pgStatioUserIndexesTemplate = `SELECT indexrelid, idx_blks_read, idx_blks_hit FROM pg_statio_user_indexes WHERE indexrelid IN %s;`
const pgIndexTemplate = `SELECT * FROM pg_index WHERE indexrelid IN %s;`

const paddingHelperTemplate = `SELECT
  tbl.oid as relid, att.attname, attalign, avg_width
FROM
  pg_attribute AS att
    JOIN pg_class AS tbl ON att.attrelid = tbl.oid
    JOIN pg_namespace AS ns ON ns.oid = tbl.relnamespace
    JOIN pg_stats AS s ON s.schemaname=ns.nspname
      AND s.tablename = tbl.relname
      AND s.inherited=false
      AND s.attname=att.attname
WHERE
  tbl.oid in %s
ORDER BY
  tbl.oid, att.attnum ASC;`

const bloatRatioFactorTemplate = `SELECT
  relid, heappages AS tblpages,
  reltuples, bs::float, page_hdr, fillfactor, is_na, tpl_data_size, tpl_hdr_size::float, ma
FROM (
  SELECT
    tbl.oid AS relid, tbl.reltuples,
    tbl.relpages AS heappages,
    coalesce(substring(
      array_to_string(tbl.reloptions, ' ')
      FROM 'fillfactor=([0-9]+)')::smallint, 100) AS fillfactor,
    current_setting('block_size')::numeric AS bs,
    CASE WHEN version()~'mingw32' OR version()~'64-bit|x86_64|ppc64|ia64|amd64' THEN 8 ELSE 4 END AS ma,
    24 AS page_hdr,
    23 + CASE WHEN MAX(coalesce(s.null_frac,0)) > 0 THEN ( 7 + count(s.attname) ) / 8.0 ELSE 0::int END
        + CASE WHEN bool_or(att.attname = 'oid' and att.attnum < 0) THEN 4 ELSE 0 END AS tpl_hdr_size,
    sum( (1-coalesce(s.null_frac, 0)) * coalesce(s.avg_width, 0) ) AS tpl_data_size,
    bool_or(att.atttypid = 'pg_catalog.name'::regtype)
      OR sum(CASE WHEN att.attnum > 0 THEN 1 ELSE 0 END) <> count(s.attname) AS is_na
  FROM pg_attribute AS att
    JOIN pg_class AS tbl ON att.attrelid = tbl.oid
    JOIN pg_namespace AS ns ON ns.oid = tbl.relnamespace
    LEFT JOIN pg_stats AS s ON s.schemaname=ns.nspname
      AND s.tablename = tbl.relname AND s.inherited=false AND s.attname=att.attname
  WHERE NOT att.attisdropped AND tbl.oid in %s
    AND tbl.relkind in ('r','m')
  GROUP BY 1,2,3,4,5,6
) AS s;`

const queryColumnsSchemaSQLTemplate = `SELECT
    a.attrelid as table_id,
    a.attname as name,
    format_type(a.atttypid, a.atttypmod) as type,
    (SELECT pg_get_expr(d.adbin, d.adrelid, true) FROM pg_attrdef d
     WHERE d.adrelid = a.attrelid AND d.adnum = a.attnum AND a.atthasdef) as default_val,
    a.attnotnull as nullable,
    (SELECT c.collname FROM pg_collation c, pg_type t
     WHERE c.oid = a.attcollation AND t.oid = a.atttypid AND a.attcollation <> t.typcollation) as collation,
    a.attidentity as identity,
    a.attstorage as storage_type,
    %s
    CASE WHEN a.attstattarget=-1 THEN NULL ELSE a.attstattarget END AS stats_target,
    col_description(a.attrelid, a.attnum) as description
FROM
    pg_attribute a
    LEFT JOIN pg_class c ON c.oid = a.attrelid
    LEFT JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE
    a.attnum > 0
    AND NOT a.attisdropped
    AND c.relkind IN ('r','p','v','m','f','')
    AND ` + excludedSchemasPredicate + `
ORDER BY a.attnum;`

const queryIndexSchemaSQL = `SELECT
    c.oid as table_id, i.indexrelid as index_id, c2.relname as index_name,
    i.indisprimary as is_primary, i.indisunique as is_unique, i.indisclustered as is_clustered,
    i.indisvalid as is_valid, pg_get_indexdef(i.indexrelid, 0, true) as index_expression,
    pg_get_constraintdef(con.oid, true) as index_constraint, contype as constraint_type,
    condeferrable as constraint_deferrable, condeferred as constraint_deferred_by_default,
    i.indisreplident as index_replica_identity, c2.reltablespace as table_space, am.amname as index_type
FROM
    pg_class c LEFT JOIN pg_namespace n ON n.oid = c.relnamespace,
    pg_class c2 LEFT JOIN pg_am am ON am.oid=c2.relam,
    pg_index i LEFT JOIN pg_constraint con
      ON (conrelid = i.indrelid AND conindid = i.indexrelid AND contype IN ('p','u','x'))
WHERE
    c.oid = i.indrelid AND i.indexrelid = c2.oid AND ` + excludedSchemasPredicate + `
ORDER BY i.indisprimary DESC, c2.relname;`

const queryForeignKeySchemaSQLTemplate = `SELECT
    conrelid as table_id, conname as constraint_name,
    pg_get_constraintdef(r.oid, true) as constraint_expression
FROM
    pg_constraint r
    LEFT JOIN pg_class c ON c.oid = r.conrelid
    LEFT JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE
    r.contype = 'f' %s
    AND ` + excludedSchemasPredicate + `
ORDER BY conrelid, conname;`

// queryIndexColumnsSchemaSQL unnests pg_index.indkey with ordinality so the
// comma-joined column list preserves each column's position in the index.
const queryIndexColumnsSchemaSQL = `SELECT
    i.indrelid as table_id, i.indexrelid as index_id,
    string_agg(a.attname, ',' ORDER BY k.seq) as column_names
FROM
    pg_index i
    CROSS JOIN LATERAL unnest(i.indkey) WITH ORDINALITY AS k(attnum, seq)
    JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = k.attnum
    JOIN pg_class c ON c.oid = i.indrelid
    LEFT JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE
    ` + excludedSchemasPredicate + `
GROUP BY i.indrelid, i.indexrelid
ORDER BY i.indrelid, i.indexrelid;`

const queryTableSchemaSQL = `SELECT
    n.nspname as schema, c.oid as table_id, c.relname as table_name, c.relkind as type,
    pg_get_userbyid(c.relowner) as owner, c.relpersistence as persistence,
    obj_description(c.oid, 'pg_class') as description
FROM pg_class c
     LEFT JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE c.relkind IN ('r','p','v','m','f','') AND ` + excludedSchemasPredicate + `
ORDER BY 1,2;`

const queryViewSchemaSQL = `SELECT schemaname, viewname, viewowner, definition
FROM pg_views
WHERE schemaname <> 'pg_catalog' AND schemaname <> 'information_schema' AND schemaname !~ '^pg_toast';`
