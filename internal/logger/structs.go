package logger

// Console configures logging to stdout/stderr.
type Console struct {
	Enabled bool
	// Pretty switches from JSON lines to zerolog's human readable console writer.
	Pretty bool
}

// File configures rolling log files, one per level group.
type File struct {
	Enabled    bool
	Path       string
	InfoLog    string
	ErrorLog   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type Log struct {
	Level        string
	ServiceName  string
	ReportCaller bool
	Console      Console
	File         File
}
