package version

var (
	// buildVersion содержит версию сборки приложения.
	buildVersion string
	// buildDate содержит дату сборки приложения.
	buildDate string
	// buildCommit содержит хеш коммита сборки.
	buildCommit string
)

// Info содержит сведения о сборке, заданные через -ldflags.
type Info struct {
	Version string
	Date    string
	Commit  string
}

// Get возвращает сведения о сборке, подставляя "N/A" для незаданных значений.
func Get() Info {
	return Info{
		Version: orNA(buildVersion),
		Date:    orNA(buildDate),
		Commit:  orNA(buildCommit),
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
