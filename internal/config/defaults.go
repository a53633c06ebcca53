package config

// GetDefaultConfig returns the configuration used when no file overrides it.
// No target is set, so a base URL, Route or Ingress must come from a file or flag.
func GetDefaultConfig() TodosmokeConfig {
	return TodosmokeConfig{
		Run: RunConfig{
			Prefix:   "todosmoke",
			MatchBy:  "description",
			Encoding: "form",
			Output:   "text",
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
	}
}
