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
		cfg.Storage.DatabasePath = "/usr/local/var/gator/data/db/gator.db"
	}
	if cfg.Model.Path == "" {
		cfg.Model.Path = "/usr/local/var/gator/data/models/topicmodel"
	}
	if cfg.Model.NumTopics == 0 {
		cfg.Model.NumTopics = 128
	}
	if cfg.Crawler.RateLimit == 0 {
		cfg.Crawler.RateLimit = 2
	}
	if cfg.Crawler.TimeoutSeconds == 0 {
		cfg.Crawler.TimeoutSeconds = 30
	}
	if cfg.Pipeline.DocsChunkSize == 0 {
		cfg.Pipeline.DocsChunkSize = 30
	}
	if cfg.Pipeline.UserDocsMaxSize == 0 {
		cfg.Pipeline.UserDocsMaxSize = 100
	}
	if cfg.Pipeline.DedupHorizonDays == 0 {
		cfg.Pipeline.DedupHorizonDays = 14
	}
	if cfg.Pipeline.GradingConcurrency == 0 {
		cfg.Pipeline.GradingConcurrency = 4
	}
	if cfg.Pipeline.RetryAttempts == 0 {
		cfg.Pipeline.RetryAttempts = 3
	}
	if cfg.Pipeline.RetryBackoffMillis == 0 {
		cfg.Pipeline.RetryBackoffMillis = 200
	}
}
