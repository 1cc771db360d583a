package excel

// ExportConfig holds configuration for dataset and result exports
type ExportConfig struct {
	DataSheet    string `json:"data_sheet"`
	MetaSheet    string `json:"meta_sheet"`
	ResultsSheet string `json:"results_sheet"`
	TargetColumn string `json:"target_column"`
	TrialColumn  string `json:"trial_column"`
}

// DefaultExportConfig returns the sheet and column names used by exports
func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		DataSheet:    "data",
		MetaSheet:    "meta",
		ResultsSheet: "results",
		TargetColumn: "target",
		TrialColumn:  "trial",
	}
}
