package ncover

import "strings"

// Report type machine names understood by NCover.Reporting.
const (
	FullCoverageReport    = "FullCoverageReport"
	Summary               = "Summary"
	UncoveredCodeSections = "UncoveredCodeSections"
	SymbolCCByGroup       = "SymbolCCByGroup"
)

// ReportType is a report supported by NCover.Reporting.
type ReportType struct {
	Name         string
	FriendlyName string
}

var catalog = [...]ReportType{
	{Name: FullCoverageReport, FriendlyName: "Full Coverage Report"},
	{Name: Summary, FriendlyName: "Summary"},
	{Name: UncoveredCodeSections, FriendlyName: "Uncovered Code Sections"},
	{Name: SymbolCCByGroup, FriendlyName: "Classes By Cyclomatic Complexity"},
}

// ReportTypes returns all supported report types.
func ReportTypes() []ReportType {
	out := make([]ReportType, len(catalog))
	copy(out, catalog[:])
	return out
}

// LookupReportType returns the report type with the given name. Matching is
// exact and case-sensitive.
func LookupReportType(name string) (ReportType, bool) {
	for _, rt := range catalog {
		if rt.Name == name {
			return rt, true
		}
	}
	return ReportType{}, false
}

// EntryPoint is the HTML file NCover writes for this report type.
func (rt ReportType) EntryPoint() string {
	return strings.ToLower(rt.Name) + ".html"
}

func (rt ReportType) String() string {
	return rt.FriendlyName
}
