package summary

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dakshscra/scra/internal/domain"
)

// TextFile is the plain-text summary's location inside a report directory.
const TextFile = "text/summary.txt"

// WriteText renders the summary in the "[+] / [-]" layout read by operators
// and by the report generator.
func WriteText(w io.Writer, s *domain.RunSummary) error {
	bw := bufio.NewWriter(w)
	kv := func(level int, key string, value any) {
		fmt.Fprintf(bw, "%s[-] %s: %v\n", strings.Repeat("    ", level), key, value)
	}

	in := s.Inputs
	bw.WriteString("[+] Inputs Selected:\n")
	kv(1, "Target Directory", in.TargetDirectory)
	kv(1, "Rule Selected", in.RuleSelected)
	kv(1, "Total Rules Loaded", in.TotalRulesLoaded)
	kv(2, "Platform Specific Rules", in.PlatformSpecificRules)
	kv(2, "Common Rules", in.CommonRules)
	kv(1, "File Types Selected", in.FileTypesSelected)

	d := s.Detection
	bw.WriteString("[+] Detection Summary:\n")
	kv(1, "Total Project Files Identified", d.TotalProjectFiles)
	kv(1, "Total Files Identified (Based on Selected Rule)", d.TotalFilesIdentified)
	kv(1, "Total Files Scanned (Based on Selected Rule)", d.TotalFilesScanned)
	if d.FileReadErrors > 0 {
		kv(1, "File Read Errors", d.FileReadErrors)
	}
	if len(d.FileExtensions) > 0 {
		bw.WriteString("    [-] File Extensions Identified (Based on Selected Rule):\n")
		platforms := make([]string, 0, len(d.FileExtensions))
		for p := range d.FileExtensions {
			platforms = append(platforms, p)
		}
		sort.Strings(platforms)
		for _, p := range platforms {
			fmt.Fprintf(bw, "        %s: [%s]\n", p, strings.Join(d.FileExtensions[p], ", "))
		}
	}
	kv(1, "Code Files - Areas-of-Interests (Rules Matched)", d.AreasOfInterest)
	kv(1, "File Paths - Areas-of-Interests (Rules Matched)", d.PathAreasOfInterest)
	bw.WriteString("\n")

	bw.WriteString("[+] Scanning Timeline:\n")
	kv(1, "Scan start time", s.Timeline.Start)
	kv(1, "Scan end time", s.Timeline.End)
	kv(1, "Scan completed in", s.Timeline.Duration)
	if !s.Complete {
		bw.WriteString("\n[!] Scan did not complete; results cover the rules evaluated before it stopped.\n")
	}

	return bw.Flush()
}
