// Package imagebuild produces golden machine images. A build boots a
// throwaway server from a base image, runs the provisioning script over
// SSH, powers the server off, and captures a snapshot whose name embeds the
// build timestamp. The build server and its ephemeral key are deleted on
// every exit path, so a failed build leaves no image and no stragglers.
package imagebuild
