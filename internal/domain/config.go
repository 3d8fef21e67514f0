package domain

// Config stores browser and session defaults for the CLI.
type Config struct {
	CDPURL     string `json:"cdpUrl,omitempty"`
	ProfileDir string `json:"profileDir"`
	Headless   bool   `json:"headless"`
	SlowMo     int    `json:"slowMo"`
	Locale     string `json:"locale"`
	TimeoutMs  int    `json:"timeoutMs"`
}
