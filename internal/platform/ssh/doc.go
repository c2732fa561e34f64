// Package ssh provides an SSH client for executing commands on remote servers.
//
// It is used during golden image builds to run the provisioning script on a
// fresh build server, and during deployments to sync the application tree
// and restart services on staging hosts. The client supports key-based
// authentication with configurable retry logic, streaming command output,
// stdin-backed file uploads, and an interactive shell for debug sessions.
package ssh
