package config

// Config holds the project configuration loaded from stagehand.yaml.
type Config struct {
	// Repository is the GitHub repository whose pull requests get staging
	// environments.
	Repository RepositoryConfig `mapstructure:"repository" yaml:"repository"`

	// Image describes how golden images are built.
	Image ImageConfig `mapstructure:"image" yaml:"image"`

	// Environment describes the per-environment server parameters.
	Environment EnvironmentConfig `mapstructure:"environment" yaml:"environment"`

	// Deploy describes how application source reaches a staging instance.
	Deploy DeployConfig `mapstructure:"deploy" yaml:"deploy"`

	// State describes the object store holding environment definitions.
	State StateConfig `mapstructure:"state" yaml:"state"`
}

// RepositoryConfig identifies the repository and the application subtree.
type RepositoryConfig struct {
	Owner string `mapstructure:"owner" yaml:"owner"`
	Name  string `mapstructure:"name" yaml:"name"`

	// AppDir is the subtree of the repository synced to instances.
	// Empty means the repository root.
	AppDir string `mapstructure:"app_dir" yaml:"app_dir"`
}

// FullName returns the owner/name form used by the GitHub API.
func (r RepositoryConfig) FullName() string {
	return r.Owner + "/" + r.Name
}

// ImageConfig holds golden image build parameters.
type ImageConfig struct {
	// Base is the Hetzner image the build server boots from.
	Base string `mapstructure:"base" yaml:"base"`

	// ServerType is the throwaway build server type.
	ServerType string `mapstructure:"server_type" yaml:"server_type"`

	// Location is the datacenter the build runs in.
	Location string `mapstructure:"location" yaml:"location"`

	// Prefix names the resulting snapshots; the build timestamp is
	// appended.
	Prefix string `mapstructure:"prefix" yaml:"prefix"`

	// Script is the local path of the provisioning script executed on the
	// build server.
	Script string `mapstructure:"script" yaml:"script"`
}

// EnvironmentConfig holds the server parameters shared by all staging
// environments.
type EnvironmentConfig struct {
	ServerType string `mapstructure:"server_type" yaml:"server_type"`
	Location   string `mapstructure:"location" yaml:"location"`

	// Image selects the golden image referenced by rendered definitions.
	// Either a snapshot name/ID or empty to pick the newest managed
	// golden image at render time.
	Image string `mapstructure:"image" yaml:"image"`

	// BaseDomain, when set, adds reverse DNS records and makes rendered
	// outputs export FQDNs instead of raw IPs.
	BaseDomain string `mapstructure:"base_domain" yaml:"base_domain"`

	// Firewall optionally attaches an existing firewall by name.
	Firewall string `mapstructure:"firewall" yaml:"firewall"`

	// SSHKey is the name of the Hetzner SSH key installed on instances.
	SSHKey string `mapstructure:"ssh_key" yaml:"ssh_key"`

	// DefinitionsDir is the local Terraform working directory holding the
	// shared definitions. Per-PR files are materialized here before plan.
	DefinitionsDir string `mapstructure:"definitions_dir" yaml:"definitions_dir"`
}

// DeployConfig holds the remote application contract.
type DeployConfig struct {
	// User is the SSH user on staging instances.
	User string `mapstructure:"user" yaml:"user"`

	// PrivateKeyFile is the local path of the key matching
	// Environment.SSHKey.
	PrivateKeyFile string `mapstructure:"private_key_file" yaml:"private_key_file"`

	// AppPath is where the application subtree lands on the instance.
	AppPath string `mapstructure:"app_path" yaml:"app_path"`

	// InstallCommand runs after sync, from AppPath.
	InstallCommand string `mapstructure:"install_command" yaml:"install_command"`

	// RestartCommand restarts the application process.
	RestartCommand string `mapstructure:"restart_command" yaml:"restart_command"`

	// WebCommand reloads the web server fronting the application.
	WebCommand string `mapstructure:"web_command" yaml:"web_command"`
}

// StateConfig locates the S3-compatible bucket holding environment
// definitions.
type StateConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	Region   string `mapstructure:"region" yaml:"region"`
	Bucket   string `mapstructure:"bucket" yaml:"bucket"`
}

func applyDefaults(cfg *Config) {
	if cfg.Image.Base == "" {
		cfg.Image.Base = "debian-13"
	}
	if cfg.Image.ServerType == "" {
		cfg.Image.ServerType = "cx22"
	}
	if cfg.Image.Location == "" {
		cfg.Image.Location = "nbg1"
	}
	if cfg.Image.Prefix == "" {
		cfg.Image.Prefix = cfg.Repository.Name + "-base"
	}

	// Environments inherit image placement unless overridden.
	if cfg.Environment.ServerType == "" {
		cfg.Environment.ServerType = cfg.Image.ServerType
	}
	if cfg.Environment.Location == "" {
		cfg.Environment.Location = cfg.Image.Location
	}
	if cfg.Environment.DefinitionsDir == "" {
		cfg.Environment.DefinitionsDir = "definitions"
	}

	if cfg.Deploy.User == "" {
		cfg.Deploy.User = "root"
	}
	if cfg.Deploy.AppPath == "" {
		cfg.Deploy.AppPath = "/srv/app"
	}
	if cfg.Deploy.InstallCommand == "" {
		cfg.Deploy.InstallCommand = "npm ci --omit=dev"
	}
	if cfg.Deploy.RestartCommand == "" {
		cfg.Deploy.RestartCommand = "pm2 restart app || pm2 start server.js --name app"
	}
	if cfg.Deploy.WebCommand == "" {
		cfg.Deploy.WebCommand = "systemctl reload nginx"
	}
}
