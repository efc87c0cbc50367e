package ncover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupReportType(t *testing.T) {
	rt, ok := LookupReportType("Summary")
	require.True(t, ok)
	assert.Equal(t, "Summary", rt.FriendlyName)

	rt, ok = LookupReportType(SymbolCCByGroup)
	require.True(t, ok)
	assert.Equal(t, "Classes By Cyclomatic Complexity", rt.String())
}

func TestLookupReportType_NotFound(t *testing.T) {
	for _, name := range []string{"unknown", "summary", "", "FULLCOVERAGEREPORT"} {
		t.Run(name, func(t *testing.T) {
			rt, ok := LookupReportType(name)
			assert.False(t, ok)
			assert.Equal(t, ReportType{}, rt)
			assert.Empty(t, rt.String())
		})
	}
}

func TestReportTypes(t *testing.T) {
	types := ReportTypes()
	require.Len(t, types, 4)
	assert.Equal(t, FullCoverageReport, types[0].Name)
	assert.Equal(t, SymbolCCByGroup, types[3].Name)

	// Callers can't modify the catalog through the returned slice.
	types[0].FriendlyName = "changed"
	rt, _ := LookupReportType(FullCoverageReport)
	assert.Equal(t, "Full Coverage Report", rt.FriendlyName)
}

func TestReportTypeEntryPoint(t *testing.T) {
	rt, _ := LookupReportType(UncoveredCodeSections)
	assert.Equal(t, "uncoveredcodesections.html", rt.EntryPoint())
}
