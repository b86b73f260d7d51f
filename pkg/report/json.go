package report

import (
	"encoding/json"

	"github.com/aoyoqui/benderr/pkg/types"
)

// JSONFormatter is the Go port of br_sdk/report_json.py's
// JsonReportFormatter.
type JSONFormatter struct{}

func (JSONFormatter) Ext() string { return ".json" }

func (JSONFormatter) Format(result *types.SequenceResult) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}
