package environment

import "strings"

// Environment is the deployment stage the process runs in.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
	Staging     Environment = "staging"
	// Test is used by test suites and CI.
	Test Environment = "test"
)

// Parse maps APP_ENV values, including short aliases, onto a known
// environment. Unknown and empty values resolve to Development.
func Parse(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return Production
	case "staging", "stage":
		return Staging
	case "test", "testing":
		return Test
	default:
		return Development
	}
}

func (e Environment) String() string { return string(e) }

func (e Environment) IsProduction() bool { return e == Production }

func (e Environment) IsDevelopment() bool { return e == Development }

// IsDeployed reports whether e is a shared, non-local environment.
func (e Environment) IsDeployed() bool { return e == Production || e == Staging }
