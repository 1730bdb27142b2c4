package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/shirabe/data/index.db"
	}
	if cfg.Storage.PostingsTable == "" {
		cfg.Storage.PostingsTable = "postings"
	}
	if cfg.Storage.NormsTable == "" {
		cfg.Storage.NormsTable = "documents"
	}
	if cfg.Search.DefaultAbove == 0 {
		cfg.Search.DefaultAbove = 0.2
	}
	if cfg.Search.DefaultTop == 0 {
		cfg.Search.DefaultTop = -1
	}
	if cfg.Ingest.Extensions == nil {
		cfg.Ingest.Extensions = []string{".txt", ".md", ".rst", ".pdf", ".docx", ".odt", ".rtf", ".xlsx"}
	}
	if cfg.Ingest.Concurrency == 0 {
		cfg.Ingest.Concurrency = 4
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Ingest.Directories) > 0 && cfg.Ingest.Recursive == nil {
		t := true
		cfg.Ingest.Recursive = &t
	}
}
