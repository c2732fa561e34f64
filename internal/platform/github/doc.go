// Package github provides a minimal GitHub REST client covering the three
// interactions stagehand needs: resolving pull requests, posting status
// comments, and downloading source tarballs. Consumers depend on the narrow
// capability interfaces rather than the concrete client.
package github
