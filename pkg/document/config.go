package document

import "time"

// Config configures the document lookup client.
type Config struct {
	BaseURL string        `env:"DECOLECTA_BASE_URL" envDefault:"https://api.decolecta.com/v1"`
	Token   string        `env:"DECOLECTA_API_TOKEN"`
	Timeout time.Duration `env:"DOCUMENT_TIMEOUT" envDefault:"10s"`
}
