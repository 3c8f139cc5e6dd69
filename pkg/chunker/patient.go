package chunker

import (
	"path/filepath"
	"regexp"
	"strings"
)

// patientIDPatterns match patient identifiers embedded in filenames,
// e.g. patient_123456_lab_results.pdf or medical_history_PT-445566.docx.
// The token must not be preceded by a letter or digit, so filenames like
// outpatient_999.txt never match.
var patientIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:^|[^a-z0-9])patient[_-]([a-z0-9]+)`),
	regexp.MustCompile(`(?i)(?:^|[^a-z0-9])pt[_-]([a-z0-9]+)`),
}

// PatientID extracts a patient identifier from a document filename. The
// identifier is returned verbatim, preserving its original case. ok is
// false when the filename carries no recognizable identifier.
func PatientID(filename string) (id string, ok bool) {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	for _, pattern := range patientIDPatterns {
		if m := pattern.FindStringSubmatch(name); m != nil {
			return m[1], true
		}
	}

	return "", false
}
