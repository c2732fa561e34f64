// Package hcloud provides a wrapper around the Hetzner Cloud API client with
// retry logic, timeout management, and error classification. It covers the
// imperative slice of stagehand's infrastructure work: golden image builds and
// cleanup of leftover build resources. Long-lived staging environments are
// converged declaratively by Terraform and are out of scope here.
//
// # Architecture
//
// The package is organized into domain-specific modules:
//
//   - client.go: Capability interfaces and the ServerCreateOpts type
//   - real_client.go: Client initialization and configuration
//   - operations.go: Generic delete operation with retry
//   - server.go: Build server lifecycle (create, poweroff, delete)
//   - server_helpers.go: Image, SSH key and location resolution
//   - snapshot.go: Golden image snapshots
//   - ssh_key.go: Ephemeral build key management
//   - firewall.go: Firewall lookup for environment validation
//   - cleanup.go: Label-based removal of leftover build resources
//   - architecture.go: CPU architecture detection from server types
//   - errors.go: Error classification for retry logic
//
// # Generic Operations
//
// DeleteOperation provides idempotent resource deletion with automatic retry:
//   - Handles resource locking with exponential backoff
//   - Returns success if the resource doesn't exist
//   - Configurable timeouts and retry parameters
//
// # Retry and Timeout Configuration
//
// Timeouts and retry parameters are configurable via environment variables:
//
//   - STAGEHAND_TIMEOUT_SERVER_CREATE: Build server creation timeout (default: 10m)
//   - STAGEHAND_TIMEOUT_SNAPSHOT_WAIT: Snapshot availability timeout (default: 15m)
//   - STAGEHAND_TIMEOUT_DELETE: Resource deletion timeout (default: 5m)
//   - STAGEHAND_RETRY_MAX_ATTEMPTS: Maximum retry attempts (default: 5)
//   - STAGEHAND_RETRY_INITIAL_DELAY: Initial retry delay (default: 1s)
//
// # Example Usage
//
//	client, err := hcloud.NewRealClient(token)
//	if err != nil {
//	    return err
//	}
//
//	serverID, err := client.CreateServer(ctx, hcloud.ServerCreateOpts{
//	    Name:       "app-base-20240101120000",
//	    Image:      "debian-13",
//	    ServerType: "cx22",
//	    Location:   "nbg1",
//	    SSHKeys:    []string{"app-base-key-20240101120000"},
//	    Labels:     labels,
//	})
//
// Operations retry transient failures automatically and return fatal errors
// immediately for permanent failures.
package hcloud
