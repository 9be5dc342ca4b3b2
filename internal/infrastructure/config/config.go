// Package config provides configuration loading for the cut-version application.
// It handles loading the project definition (the applications that can be released)
// and other application settings from environment variables, a local project file,
// and HashiCorp Vault.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/MyCarrier-DevOps/goLibMyCarrier/vault"
	"gopkg.in/yaml.v3"

	"github.com/MyCarrier-DevOps/cut-version/internal/domain"
)

// Environment variable names.
const (
	// EnvProjectFile is the path to the project definition file (JSON or YAML).
	EnvProjectFile = "CUT_VERSION_PROJECT_FILE"

	// EnvBaseDir is the directory under which working copies are staged.
	EnvBaseDir = "CUT_VERSION_BASE_DIR"

	// EnvLogLevel is the log level (debug, info, error).
	EnvLogLevel = "LOG_LEVEL"

	// EnvLogAppName is the application name for log context.
	EnvLogAppName = "LOG_APP_NAME"

	// EnvVaultProjectConfigPath is the path in Vault KV where the project definition is stored.
	// An optional "#key" suffix selects the key holding the document.
	EnvVaultProjectConfigPath = "VAULT_PROJECT_CONFIG_PATH"

	// EnvVaultProjectConfigMount is the Vault KV mount point (defaults to "secret").
	EnvVaultProjectConfigMount = "VAULT_PROJECT_CONFIG_MOUNT"
)

// Default values.
const (
	DefaultLogLevel          = "info"
	DefaultLogAppName        = "cut-version"
	DefaultProjectFile       = "rebar-project.json"
	DefaultVaultProjectMount = "secret"
	DefaultSecretKey         = "config"
)

// Configuration errors.
var (
	// ErrProjectConfigNotFound indicates an explicitly requested project file does not exist.
	ErrProjectConfigNotFound = errors.New("project definition file not found")

	// ErrProjectConfigInvalid indicates the project definition could not be decoded or is incomplete.
	ErrProjectConfigInvalid = errors.New("project definition is invalid")

	// ErrVaultClientFailed indicates failure to create or authenticate with Vault.
	ErrVaultClientFailed = errors.New("failed to create Vault client")

	// ErrVaultSecretNotFound indicates the secret was not found in Vault.
	ErrVaultSecretNotFound = errors.New("project definition not found in Vault")
)

// VaultClient defines the interface for Vault operations.
// This interface allows for dependency injection and testing.
type VaultClient interface {
	// GetKVSecret retrieves a secret from Vault's KV v2 secrets engine.
	GetKVSecret(ctx context.Context, path, mount string) (map[string]interface{}, error)
}

// VaultClientFactory creates a VaultClient using AppRole authentication.
// This is the default factory used in production.
type VaultClientFactory func(ctx context.Context) (VaultClient, error)

// DefaultVaultClientFactory creates a VaultClient using goLibMyCarrier/vault with AppRole auth.
func DefaultVaultClientFactory(ctx context.Context) (VaultClient, error) {
	// Uses: VAULT_ADDRESS, VAULT_ROLE_ID, VAULT_SECRET_ID
	vaultConfig, err := vault.VaultLoadConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultClientFailed, err)
	}

	client, err := vault.CreateVaultClient(ctx, vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultClientFailed, err)
	}

	return client, nil
}

// Config holds all application configuration.
type Config struct {
	// BaseDir is the directory under which the cut-version staging directory is created.
	BaseDir string

	// ProjectSource describes where Project was loaded from (a file path or a vault:// path).
	// Empty when no project definition was found.
	ProjectSource string

	// Project is the project definition. Nil when no project definition was found.
	Project *domain.Project

	// LogLevel is the logging level (debug, info, error).
	LogLevel string

	// LogAppName is the application name for log context.
	LogAppName string
}

// Load loads the application configuration from environment variables.
// The project definition is loaded from Vault when VAULT_PROJECT_CONFIG_PATH is set,
// otherwise from CUT_VERSION_PROJECT_FILE (default rebar-project.json).
//
// For Vault loading, requires:
//   - VAULT_ADDRESS: Vault server address
//   - VAULT_ROLE_ID: AppRole role ID
//   - VAULT_SECRET_ID: AppRole secret ID
//   - VAULT_PROJECT_CONFIG_PATH: Path to the secret in Vault, optionally suffixed with #key
//   - VAULT_PROJECT_CONFIG_MOUNT: KV mount point (optional, defaults to "secret")
//
// A missing default project file is not an error; Project is left nil.
func Load() (*Config, error) {
	return LoadWithVaultClient(context.Background(), "", nil)
}

// LoadWithVaultClient loads configuration using the provided VaultClient factory.
// A non-empty projectFile overrides CUT_VERSION_PROJECT_FILE and must exist.
// If vaultClientFactory is nil, DefaultVaultClientFactory is used.
func LoadWithVaultClient(ctx context.Context, projectFile string, vaultClientFactory VaultClientFactory) (*Config, error) {
	baseDir := os.Getenv(EnvBaseDir)
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine base directory: %w", err)
		}
		baseDir = wd
	}

	project, source, err := loadProject(ctx, projectFile, vaultClientFactory)
	if err != nil {
		return nil, err
	}

	logLevel := os.Getenv(EnvLogLevel)
	if logLevel == "" {
		logLevel = DefaultLogLevel
	}

	logAppName := os.Getenv(EnvLogAppName)
	if logAppName == "" {
		logAppName = DefaultLogAppName
	}

	return &Config{
		BaseDir:       baseDir,
		ProjectSource: source,
		Project:       project,
		LogLevel:      logLevel,
		LogAppName:    logAppName,
	}, nil
}

// ResolveApplication returns the settings for the named application.
// repoOverride, when set, replaces the configured repository URL and allows releasing
// an application the project definition does not list.
func (c *Config) ResolveApplication(name, repoOverride string) (domain.Application, error) {
	var app domain.Application
	var found bool
	if c.Project != nil {
		app, found = c.Project.Applications[name]
	}

	if !found && repoOverride == "" {
		return domain.Application{}, fmt.Errorf("%w: %q (known: %s)",
			domain.ErrApplicationNotDefined, name, c.knownApplications())
	}

	if repoOverride != "" {
		app.RepositoryURL = repoOverride
	}
	if app.RepositoryURL == "" {
		return domain.Application{}, fmt.Errorf("%w: application %q has no repositoryUrl",
			ErrProjectConfigInvalid, name)
	}

	return app, nil
}

func (c *Config) knownApplications() string {
	if c.Project == nil || len(c.Project.Applications) == 0 {
		return "none"
	}
	names := make([]string, 0, len(c.Project.Applications))
	for name := range c.Project.Applications {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// loadProject attempts to load the project definition from Vault first,
// falling back to the local file if Vault is not configured.
func loadProject(
	ctx context.Context,
	projectFile string,
	vaultClientFactory VaultClientFactory,
) (*domain.Project, string, error) {
	if vaultPath := os.Getenv(EnvVaultProjectConfigPath); vaultPath != "" && projectFile == "" {
		return loadProjectFromVault(ctx, vaultClientFactory, vaultPath)
	}

	required := true
	if projectFile == "" {
		projectFile = os.Getenv(EnvProjectFile)
	}
	if projectFile == "" {
		projectFile = DefaultProjectFile
		required = false
	}

	project, err := loadProjectFromFile(projectFile)
	if errors.Is(err, ErrProjectConfigNotFound) && !required {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return project, projectFile, nil
}

// loadProjectFromVault loads the project definition from Vault KV v2.
func loadProjectFromVault(
	ctx context.Context,
	vaultClientFactory VaultClientFactory,
	fullPath string,
) (*domain.Project, string, error) {
	if vaultClientFactory == nil {
		vaultClientFactory = DefaultVaultClientFactory
	}

	client, err := vaultClientFactory(ctx)
	if err != nil {
		return nil, "", err
	}

	mount := os.Getenv(EnvVaultProjectConfigMount)
	if mount == "" {
		mount = DefaultVaultProjectMount
	}

	path, key := parseVaultPath(fullPath)

	secretData, err := client.GetKVSecret(ctx, path, mount)
	if err != nil {
		return nil, "", fmt.Errorf("%w at path %s: %w", ErrVaultSecretNotFound, path, err)
	}

	project, err := parseProjectFromVault(secretData, key)
	if err != nil {
		return nil, "", err
	}
	return project, "vault://" + mount + "/" + path, nil
}

// parseVaultPath splits "path#key" on the last '#'. Without a '#' the key is DefaultSecretKey.
func parseVaultPath(fullPath string) (string, string) {
	idx := strings.LastIndex(fullPath, "#")
	if idx < 0 {
		return fullPath, DefaultSecretKey
	}
	return fullPath[:idx], fullPath[idx+1:]
}

// parseProjectFromVault parses the project definition from Vault secret data.
// Supports two formats:
// 1. A key containing the JSON or YAML document as a string
// 2. Direct mapping of the project fields in the secret
func parseProjectFromVault(secretData map[string]interface{}, key string) (*domain.Project, error) {
	if doc, ok := secretData[key].(string); ok {
		return parseProject([]byte(doc))
	}

	data, err := yaml.Marshal(secretData)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal secret data: %w", ErrProjectConfigInvalid, err)
	}
	return parseProject(data)
}

// loadProjectFromFile loads the project definition from the specified file path.
func loadProjectFromFile(path string) (*domain.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrProjectConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read project definition: %w", err)
	}

	return parseProject(data)
}

// parseProject decodes a project document. JSON is valid YAML, so both formats are accepted.
func parseProject(data []byte) (*domain.Project, error) {
	var project domain.Project
	if err := yaml.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProjectConfigInvalid, err)
	}
	if len(project.Applications) == 0 {
		return nil, fmt.Errorf("%w: no applications defined", ErrProjectConfigInvalid)
	}
	return &project, nil
}
