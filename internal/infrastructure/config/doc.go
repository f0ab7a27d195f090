// Package config handles loading and validating tracker configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with TRACKER_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (broker passwords, InfluxDB tokens, the bootstrap
//     admin password) should be set via environment variables
//   - The bootstrap password default (admin123) exists for local development
//     and must be overridden before deployment
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
package config
