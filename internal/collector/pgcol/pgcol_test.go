package pgcol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ottertune/db-agent/internal/derive"
	"github.com/ottertune/db-agent/internal/model"
)

func TestParseMajorMinor(t *testing.T) {
	assert.Equal(t, 13.3, parseMajorMinor("13.3"))
	assert.Equal(t, 9.6, parseMajorMinor("9.6.1"))
	assert.Equal(t, 14.0, parseMajorMinor("14"))
}

func TestQuoteOIDList(t *testing.T) {
	assert.Equal(t, "(0)", quoteOIDList(nil))
	assert.Equal(t, "(1,2,3)", quoteOIDList([]int64{1, 2, 3}))
}

func TestAlignmentCode(t *testing.T) {
	assert.Equal(t, derive.AlignChar, alignmentCode("c"))
	assert.Equal(t, derive.AlignShort, alignmentCode("s"))
	assert.Equal(t, derive.AlignInt, alignmentCode("i"))
	assert.Equal(t, derive.AlignDouble, alignmentCode("d"))
	assert.Equal(t, derive.AlignInt, alignmentCode("?"))
}

func TestGroupAttributesByRelID(t *testing.T) {
	table := model.NewTabular(
		[]string{"relid", "attname", "attalign", "avg_width"},
		[][]any{
			{int64(100), "id", "i", float64(4)},
			{int64(100), "name", "c", float64(32)},
			{int64(200), "id", "i", float64(4)},
		},
	)
	grouped := groupAttributesByRelID(table)
	require.Len(t, grouped[100], 2)
	require.Len(t, grouped[200], 1)
	assert.Equal(t, derive.AlignInt, grouped[100][0].Align)
	assert.Equal(t, derive.AlignChar, grouped[100][1].Align)
}

func TestAnonymizeVacuumQuery(t *testing.T) {
	autovac := map[string]any{"query": "autovacuum: VACUUM public.big_table (to prevent wraparound)"}
	anonymizeVacuumQuery(autovac)
	assert.Equal(t, "autovacuum: VACUUM public.big_table (to prevent wraparound)", autovac["query"])

	manual := map[string]any{"query": "VACUUM ANALYZE public.accounts"}
	anonymizeVacuumQuery(manual)
	assert.Equal(t, "vacuum analyze public.accounts", manual["query"])

	commented := map[string]any{"query": "-- comment\n VACUUM TPCC.OORDER\t;"}
	anonymizeVacuumQuery(commented)
	assert.Equal(t, "vacuum tpcc.oorder", commented["query"])

	unrelated := map[string]any{"query": "SELECT 1"}
	anonymizeVacuumQuery(unrelated)
	assert.Equal(t, "", unrelated["query"])

	empty := map[string]any{}
	anonymizeVacuumQuery(empty)
	assert.Nil(t, empty["query"])
}

func TestLongRunningQuerySQLGatesQueryIDByVersion(t *testing.T) {
	pg14 := &Collector{hasQueryID: true}
	assert.Contains(t, pg14.longRunningQuerySQL(10, 5), "query_id")
	assert.Contains(t, pg14.longRunningQuerySQL(10, 5), "interval '5 minutes'")

	pg13 := &Collector{}
	assert.NotContains(t, pg13.longRunningQuerySQL(10, 5), "query_id")
}

func TestStatStatementsSQLUsesVersionedMeanColumn(t *testing.T) {
	pg13 := &Collector{useMeanExecTime: true}
	assert.Contains(t, pg13.statStatementsSQL(), "mean_exec_time")

	pg12 := &Collector{}
	assert.Contains(t, pg12.statStatementsSQL(), "mean_time")
	assert.NotContains(t, pg12.statStatementsSQL(), "mean_exec_time")
}

func TestTargetTableOIDList(t *testing.T) {
	assert.Equal(t, "(0)", targetTableOIDList(nil, "db1"))
}

func TestAsHelpers(t *testing.T) {
	assert.Equal(t, int64(5), asInt64("5"))
	assert.Equal(t, int64(5), asInt64(float64(5)))
	assert.Equal(t, 1.5, asFloat64("1.5"))
	assert.True(t, asBool(true))
	assert.Equal(t, "x", asString("x"))
}
