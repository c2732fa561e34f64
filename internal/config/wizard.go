package config

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"gopkg.in/yaml.v3"
)

// WizardResult holds the user's choices from the init wizard.
type WizardResult struct {
	Owner      string
	Repo       string
	AppDir     string
	BaseImage  string
	ServerType string
	Location   string
	SSHKey     string
	BaseDomain string
	Bucket     string
	Endpoint   string
	Region     string
}

// RunWizard runs the interactive configuration wizard.
func RunWizard() (*WizardResult, error) {
	result := &WizardResult{
		// Defaults
		BaseImage:  "debian-13",
		ServerType: "cx22",
		Location:   "nbg1",
		Region:     "fsn1",
	}

	form := huh.NewForm(
		// Repository identity
		huh.NewGroup(
			huh.NewInput().
				Title("Repository owner").
				Description("GitHub organization or user owning the repository").
				Placeholder("acme").
				Value(&result.Owner).
				Validate(requireNonEmpty("repository owner")),

			huh.NewInput().
				Title("Repository name").
				Placeholder("webapp").
				Value(&result.Repo).
				Validate(requireNonEmpty("repository name")),

			huh.NewInput().
				Title("Application directory (optional)").
				Description("Repository subtree deployed to instances; empty for the whole tree").
				Placeholder("app").
				Value(&result.AppDir),
		),

		// Instance parameters
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Server type").
				Description("Shared vCPU instances (cost-effective)").
				Options(
					huh.NewOption("CX22 - 2 vCPU, 4GB RAM", "cx22"),
					huh.NewOption("CX32 - 4 vCPU, 8GB RAM", "cx32"),
					huh.NewOption("CX42 - 8 vCPU, 16GB RAM", "cx42"),
				).
				Value(&result.ServerType),

			huh.NewSelect[string]().
				Title("Location").
				Description("Hetzner Cloud datacenter location").
				Options(
					huh.NewOption("Nuremberg, Germany (nbg1)", "nbg1"),
					huh.NewOption("Falkenstein, Germany (fsn1)", "fsn1"),
					huh.NewOption("Helsinki, Finland (hel1)", "hel1"),
				).
				Value(&result.Location),

			huh.NewInput().
				Title("SSH key name").
				Description("Name of the Hetzner Cloud SSH key installed on instances").
				Placeholder("staging-deploy").
				Value(&result.SSHKey).
				Validate(requireNonEmpty("ssh key name")),

			huh.NewInput().
				Title("Base domain (optional)").
				Description("Instances get <name>.<domain> reverse DNS; empty to use raw IPs").
				Placeholder("staging.example.com").
				Value(&result.BaseDomain),
		),

		// Definition state store
		huh.NewGroup(
			huh.NewInput().
				Title("State bucket").
				Description("S3-compatible bucket holding environment definitions").
				Placeholder("acme-staging-state").
				Value(&result.Bucket).
				Validate(requireNonEmpty("state bucket")),

			huh.NewSelect[string]().
				Title("Object storage region").
				Options(
					huh.NewOption("Falkenstein (fsn1)", "fsn1"),
					huh.NewOption("Nuremberg (nbg1)", "nbg1"),
					huh.NewOption("Helsinki (hel1)", "hel1"),
				).
				Value(&result.Region),
		),
	)

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard aborted: %w", err)
	}

	if result.Endpoint == "" {
		result.Endpoint = fmt.Sprintf("https://%s.your-objectstorage.com", result.Region)
	}

	return result, nil
}

// BuildConfig converts wizard answers into a Config with defaults applied.
func (r *WizardResult) BuildConfig() *Config {
	cfg := &Config{
		Repository: RepositoryConfig{
			Owner:  strings.TrimSpace(r.Owner),
			Name:   strings.TrimSpace(r.Repo),
			AppDir: strings.TrimSpace(r.AppDir),
		},
		Image: ImageConfig{
			Base:       r.BaseImage,
			ServerType: r.ServerType,
			Location:   r.Location,
		},
		Environment: EnvironmentConfig{
			ServerType: r.ServerType,
			Location:   r.Location,
			SSHKey:     strings.TrimSpace(r.SSHKey),
			BaseDomain: strings.TrimSpace(r.BaseDomain),
		},
		State: StateConfig{
			Endpoint: r.Endpoint,
			Region:   r.Region,
			Bucket:   strings.TrimSpace(r.Bucket),
		},
	}
	applyDefaults(cfg)
	return cfg
}

// Marshal renders a Config as stagehand.yaml content.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

func requireNonEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s must not be empty", field)
		}
		return nil
	}
}
