package types

// CLIArgs represents the command-line arguments.
type CLIArgs struct {
	ConfigFile    string
	Profile       string
	Region        string
	ReportName    string
	ReportType    []string
	Dir           string
	DryRun        bool
	CodeFile      string
	CodeS3Bucket  string
	CodeS3Key     string
	Applications  []string
	Emails        []string
	Statuses      []string
	RetentionDays int
}
