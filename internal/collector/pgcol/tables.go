package pgcol

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/ottertune/db-agent/internal/collector"
	"github.com/ottertune/db-agent/internal/derive"
	"github.com/ottertune/db-agent/internal/model"
)

// tableLevelStatsSQLs names the three table-level sub-payloads, keyed by the
// view name the ingestion side expects.
var tableLevelStatsSQLs = map[string]string{
	"pg_stat_user_tables_all_fields":   pgStatUserTablesTemplate,
	"pg_statio_user_tables_all_fields": pgStatioUserTablesTemplate,
	"pg_stat_user_tables_table_sizes":  tableSizeTemplate,
}

var indexStatsSQLs = map[string]string{
	"pg_stat_user_indexes_all_fields":   pgStatUserIndexesTemplate,
	"pg_statio_user_indexes_all_fields": pgStatioUserIndexesTemplate,
	"pg_index_all_fields":               pgIndexTemplate,
}

// GetTargetTableInfo selects the top-N tables by live-row count in each
// logical database independently: PostgreSQL's fan-out is keyed per logical
// database, unlike MySQL's single "".
func (c *Collector) GetTargetTableInfo(ctx context.Context, numTables int) (map[string]collector.TargetTableInfo, error) {
	out := make(map[string]collector.TargetTableInfo, len(c.names))
	for _, name := range c.names {
		rows, err := c.conns[name].QueryContext(ctx, fmt.Sprintf(topNLargestTablesSQLTemplate, numTables))
		if err != nil {
			return nil, errors.Wrapf(err, "get target table info for %q", name)
		}
		table, err := queryTabular(rows)
		if err != nil {
			return nil, errors.Wrapf(err, "scan target table info for %q", name)
		}

		var oids []int64
		var oidStrs []string
		for _, row := range table.Rows {
			oid := asInt64(row[0])
			oids = append(oids, oid)
			oidStrs = append(oidStrs, fmt.Sprint(oid))
		}

		out[name] = collector.TargetTableInfo{
			TargetTables:    oidStrs,
			TargetTablesStr: []string{quoteOIDList(oids)},
		}
	}
	return out, nil
}

// CollectTableLevelMetrics runs the three named table-stats views plus the
// bloat-ratio estimate for every logical database and concatenates the
// per-database tabulars, appending logical_database_name to each row so the
// rows partition disjointly by that column.
func (c *Collector) CollectTableLevelMetrics(ctx context.Context, info map[string]collector.TargetTableInfo) (collector.TableLevelMetrics, error) {
	out := make(collector.TableLevelMetrics, len(tableLevelStatsSQLs)+1)

	for field, tmpl := range tableLevelStatsSQLs {
		var parts []model.Tabular
		for _, name := range c.names {
			oidList := targetTableOIDList(info, name)
			rows, err := c.conns[name].QueryContext(ctx, fmt.Sprintf(tmpl, oidList))
			if err != nil {
				return nil, errors.Wrapf(err, "collect %s for %q", field, name)
			}
			table, err := queryTabular(rows)
			if err != nil {
				return nil, errors.Wrapf(err, "scan %s for %q", field, name)
			}
			parts = append(parts, table.AppendColumn("logical_database_name", name))
		}
		out[field] = model.Concat(parts...)
	}

	bloat, err := c.collectTableBloatRatios(ctx, info)
	if err != nil {
		return nil, err
	}
	out["table_bloat_ratios"] = bloat

	return out, nil
}

func (c *Collector) collectTableBloatRatios(ctx context.Context, info map[string]collector.TargetTableInfo) (model.Tabular, error) {
	var parts []model.Tabular
	for _, name := range c.names {
		oidList := targetTableOIDList(info, name)
		if oidList == "(0)" {
			parts = append(parts, model.NewTabular([]string{"relid", "bloat_ratio"}, nil).AppendColumn("logical_database_name", name))
			continue
		}

		db := c.conns[name]
		paddingRows, err := db.QueryContext(ctx, fmt.Sprintf(paddingHelperTemplate, oidList))
		if err != nil {
			return model.Tabular{}, errors.Wrapf(err, "collect padding helper for %q", name)
		}
		paddingTable, err := queryTabular(paddingRows)
		if err != nil {
			return model.Tabular{}, errors.Wrapf(err, "scan padding helper for %q", name)
		}
		paddingByRelID := groupAttributesByRelID(paddingTable)

		factorRows, err := db.QueryContext(ctx, fmt.Sprintf(bloatRatioFactorTemplate, oidList))
		if err != nil {
			return model.Tabular{}, errors.Wrapf(err, "collect bloat ratio factors for %q", name)
		}
		factorTable, err := queryTabular(factorRows)
		if err != nil {
			return model.Tabular{}, errors.Wrapf(err, "scan bloat ratio factors for %q", name)
		}

		rows := make([][]any, 0, len(factorTable.Rows))
		for _, row := range factorTable.Rows {
			factorRow := rowAsMap(factorTable.Columns, row)
			relID := asInt64(factorRow["relid"])
			factors := derive.TableBloatFactors{
				TblPages:    asFloat64(factorRow["tblpages"]),
				RelTuples:   asFloat64(factorRow["reltuples"]),
				BS:          asFloat64(factorRow["bs"]),
				PageHdr:     asFloat64(factorRow["page_hdr"]),
				FillFactor:  asFloat64(factorRow["fillfactor"]),
				IsNA:        asBool(factorRow["is_na"]),
				TplDataSize: asFloat64(factorRow["tpl_data_size"]),
				TplHdrSize:  asFloat64(factorRow["tpl_hdr_size"]),
				MA:          asFloat64(factorRow["ma"]),
			}
			attrs := paddingByRelID[relID]
			ratio := derive.BloatRatio(attrs, factors)
			var ratioValue any
			if ratio != nil {
				ratioValue = *ratio
			}
			rows = append(rows, []any{relID, ratioValue})
		}

		parts = append(parts, model.NewTabular([]string{"relid", "bloat_ratio"}, rows).AppendColumn("logical_database_name", name))
	}
	return model.Concat(parts...), nil
}

// groupAttributesByRelID converts the padding-helper rows (already ordered
// by relid, attnum per the SQL) into the per-table attribute list
// BloatRatio needs, translating the single-character alignment code into
// derive's numeric constants.
func groupAttributesByRelID(t model.Tabular) map[int64][]derive.TableAttribute {
	relIdx := columnIndex(t.Columns, "relid")
	alignIdx := columnIndex(t.Columns, "attalign")
	widthIdx := columnIndex(t.Columns, "avg_width")

	out := make(map[int64][]derive.TableAttribute)
	for _, row := range t.Rows {
		relID := asInt64(row[relIdx])
		align := alignmentCode(asString(row[alignIdx]))
		width := asFloat64(row[widthIdx])
		out[relID] = append(out[relID], derive.TableAttribute{Align: align, AvgWidth: width})
	}
	return out
}

func alignmentCode(code string) int {
	switch code {
	case "c":
		return derive.AlignChar
	case "s":
		return derive.AlignShort
	case "i":
		return derive.AlignInt
	case "d":
		return derive.AlignDouble
	default:
		return derive.AlignInt
	}
}

func rowAsMap(columns []string, row []any) map[string]any {
	out := make(map[string]any, len(columns))
	for i, c := range columns {
		out[c] = row[i]
	}
	return out
}

func targetTableOIDList(info map[string]collector.TargetTableInfo, name string) string {
	t, ok := info[name]
	if !ok || len(t.TargetTablesStr) == 0 {
		return "(0)"
	}
	return t.TargetTablesStr[0]
}

// CollectIndexMetrics selects the top num_index_to_collect_stats indexes on
// the target tables (per logical database) and gathers their three named
// sub-payloads plus a derived indexes_size view.
func (c *Collector) CollectIndexMetrics(ctx context.Context, info map[string]collector.TargetTableInfo, numIndexes int) (collector.IndexMetrics, error) {
	out := make(collector.IndexMetrics, len(indexStatsSQLs)+1)
	var sizeParts []model.Tabular

	perDBIndexList := make(map[string]string, len(c.names))

	for _, name := range c.names {
		tableOIDList := targetTableOIDList(info, name)
		db := c.conns[name]

		idxRows, err := db.QueryContext(ctx, fmt.Sprintf(topNLargestIndexesSQLTemplate, tableOIDList, numIndexes))
		if err != nil {
			return nil, errors.Wrapf(err, "collect top indexes for %q", name)
		}
		idxTable, err := queryTabular(idxRows)
		if err != nil {
			return nil, errors.Wrapf(err, "scan top indexes for %q", name)
		}

		var idxOIDs []int64
		sizeRows := make([][]any, 0, len(idxTable.Rows))
		for _, row := range idxTable.Rows {
			idxOIDs = append(idxOIDs, asInt64(row[0]))
			sizeRows = append(sizeRows, []any{row[0], row[1]})
		}
		perDBIndexList[name] = quoteOIDList(idxOIDs)
		sizeParts = append(sizeParts, model.NewTabular([]string{"indexrelid", "index_size"}, sizeRows).AppendColumn("logical_database_name", name))
	}
	out["indexes_size"] = model.Concat(sizeParts...)

	for field, tmpl := range indexStatsSQLs {
		var parts []model.Tabular
		for _, name := range c.names {
			rows, err := c.conns[name].QueryContext(ctx, fmt.Sprintf(tmpl, perDBIndexList[name]))
			if err != nil {
				return nil, errors.Wrapf(err, "collect %s for %q", field, name)
			}
			table, err := queryTabular(rows)
			if err != nil {
				return nil, errors.Wrapf(err, "scan %s for %q", field, name)
			}
			parts = append(parts, table.AppendColumn("logical_database_name", name))
		}
		out[field] = model.Concat(parts...)
	}

	return out, nil
}
