package config

// Config holds all configuration for the application.
type Config struct {
	DBName        string
	MigrationsDir string
	Port          string
	Cbva          CbvaConfig
	Slack         SlackConfig
	Turso         TursoConfig
	ProjectID     string
	ScrapeCron    string
}

type CbvaConfig struct {
	BaseURL   string
	StartYear int
}

type SlackConfig struct {
	Token     string
	ChannelID string
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}
