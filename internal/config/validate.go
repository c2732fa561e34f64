package config

import (
	"fmt"
	"strings"
)

// ValidLocations contains all valid Hetzner Cloud datacenter locations.
// https://docs.hetzner.com/cloud/general/locations/
var ValidLocations = map[string]bool{
	"nbg1": true, // Nuremberg, Germany
	"fsn1": true, // Falkenstein, Germany
	"hel1": true, // Helsinki, Finland
	"ash":  true, // Ashburn, USA
	"hil":  true, // Hillsboro, USA
	"sin":  true, // Singapore
}

// Validate checks the configuration for common errors and returns a detailed
// error if validation fails.
func (c *Config) Validate() error {
	if c.Repository.Owner == "" {
		return fmt.Errorf("repository.owner is required")
	}
	if c.Repository.Name == "" {
		return fmt.Errorf("repository.name is required")
	}
	if strings.Contains(c.Repository.Owner, "/") || strings.Contains(c.Repository.Name, "/") {
		return fmt.Errorf("repository.owner and repository.name must not contain '/'")
	}

	if err := c.validateLocations(); err != nil {
		return fmt.Errorf("location validation failed: %w", err)
	}

	if c.Environment.SSHKey == "" {
		return fmt.Errorf("environment.ssh_key is required")
	}

	if err := c.validateState(); err != nil {
		return fmt.Errorf("state validation failed: %w", err)
	}

	return nil
}

func (c *Config) validateLocations() error {
	if !ValidLocations[c.Image.Location] {
		return fmt.Errorf("invalid image location %q (valid: %s)", c.Image.Location, validLocationList())
	}
	if !ValidLocations[c.Environment.Location] {
		return fmt.Errorf("invalid environment location %q (valid: %s)", c.Environment.Location, validLocationList())
	}
	return nil
}

func (c *Config) validateState() error {
	if c.State.Bucket == "" {
		return fmt.Errorf("state.bucket is required")
	}
	if c.State.Endpoint == "" {
		return fmt.Errorf("state.endpoint is required")
	}
	if c.State.Region == "" {
		return fmt.Errorf("state.region is required")
	}
	if !strings.HasPrefix(c.State.Endpoint, "https://") && !strings.HasPrefix(c.State.Endpoint, "http://") {
		return fmt.Errorf("state.endpoint must be a URL, got %q", c.State.Endpoint)
	}
	return nil
}

func validLocationList() string {
	locations := make([]string, 0, len(ValidLocations))
	for loc := range ValidLocations {
		locations = append(locations, loc)
	}
	return strings.Join(locations, ", ")
}
