// Package naming provides consistent naming functions for staging resources.
//
// Per-pull-request environments follow the pattern staging_PR_{n} for the
// environment name, extra_staging_PR_{n}.tf for the definition file and
// staging_dns_PR_{n} for the address output. Image-build resources embed a
// build timestamp so successive builds never collide.
package naming
