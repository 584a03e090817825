package patterns

// Infra detects infrastructure identifiers: connection strings, internal
// addressing, and orchestrator-native secret objects.
var Infra = []Definition{
	{
		Type:       "DB_CONNECTION_STRING",
		Family:     "INFRA",
		Regex:      mustCompile(`\b(?:postgres|postgresql|mysql|mongodb(?:\+srv)?|redis)://[^\s"']+`),
		Confidence: 0.92,
		Alert:      "CRITICAL",
	},
	{
		Type:       "REDIS_URL",
		Family:     "INFRA",
		Regex:      mustCompile(`\bredis://(?:[^\s"'@]+@)?[^\s"']+`),
		Confidence: 0.92,
		Alert:      "CRITICAL",
	},
	{
		Type: "IP_ADDRESS",
		Family: "INFRA",
		Regex: mustCompile(
			`\b(?:(?:10|127|192\.168|172\.(?:1[6-9]|2\d|3[01]))\.\d{1,3}\.\d{1,3}\.\d{1,3}|\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})\b`,
		),
		Confidence: 0.70,
		Alert:      "HIGH",
	},
	{
		Type:       "INTERNAL_HOSTNAME",
		Family:     "INFRA",
		Regex:      mustCompile(`\b[a-z0-9][a-z0-9\-]*\.(?:internal|corp|local|intranet)\b`),
		Confidence: 0.75,
		Alert:      "CRITICAL",
	},
	{
		Type:       "ENV_FILE_CONTENT",
		Family:     "INFRA",
		Regex:      mustCompile(`(?m)^[A-Z][A-Z0-9_]{2,}=[^\s]+$`),
		Confidence: 0.65,
		Alert:      "CRITICAL",
	},
	{
		Type:       "DOCKER_SECRET",
		Family:     "INFRA",
		Regex:      mustCompile(`(?i)/run/secrets/[\w\-.]+`),
		Confidence: 0.88,
		Alert:      "HIGH",
	},
	{
		Type:       "KUBERNETES_SECRET",
		Family:     "INFRA",
		Regex:      mustCompile(`(?i)\bkind:\s*Secret\b`),
		Confidence: 0.85,
		Alert:      "HIGH",
	},
}
