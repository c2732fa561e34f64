package labels

import "strconv"

// Standard label keys for Hetzner Cloud resources.
// Using the stagehand.dev prefix for clear namespacing.
const (
	// KeyEnvironment identifies which staging environment a resource
	// belongs to.
	KeyEnvironment = "stagehand.dev/environment"

	// KeyPullRequest carries the pull request number an ephemeral
	// environment was created for.
	KeyPullRequest = "stagehand.dev/pull-request"

	// KeyKind identifies what a resource is (golden-image, build-server,
	// build-key).
	KeyKind = "stagehand.dev/kind"

	// KeyBaseImage records which base image a golden image was built from.
	KeyBaseImage = "stagehand.dev/base-image"

	// KeyPrefix records the image name prefix used at build time.
	KeyPrefix = "stagehand.dev/prefix"

	// KeyArchitecture records the CPU architecture a golden image was
	// built for (amd64 or arm64).
	KeyArchitecture = "stagehand.dev/architecture"

	// KeyManagedBy identifies the management system.
	KeyManagedBy = "stagehand.dev/managed-by"
)

// Kind values
const (
	KindGoldenImage = "golden-image"
	KindBuildServer = "build-server"
	KindBuildKey    = "build-key"
)

// ManagedBy values
const (
	ManagedByStagehand = "stagehand"
)

// LabelBuilder provides a fluent interface for building Hetzner Cloud
// resource labels.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a label builder with the manager label pre-set.
func NewLabelBuilder() *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyManagedBy: ManagedByStagehand,
		},
	}
}

// WithEnvironment adds the environment name label.
func (lb *LabelBuilder) WithEnvironment(env string) *LabelBuilder {
	lb.labels[KeyEnvironment] = env
	return lb
}

// WithPullRequest adds the pull request number label.
func (lb *LabelBuilder) WithPullRequest(pr int) *LabelBuilder {
	lb.labels[KeyPullRequest] = strconv.Itoa(pr)
	return lb
}

// WithKind adds the resource kind label.
func (lb *LabelBuilder) WithKind(kind string) *LabelBuilder {
	lb.labels[KeyKind] = kind
	return lb
}

// WithBaseImage records the base image a golden image was built from.
func (lb *LabelBuilder) WithBaseImage(image string) *LabelBuilder {
	lb.labels[KeyBaseImage] = image
	return lb
}

// WithPrefix records the image name prefix.
func (lb *LabelBuilder) WithPrefix(prefix string) *LabelBuilder {
	lb.labels[KeyPrefix] = prefix
	return lb
}

// WithArchitecture records the CPU architecture.
func (lb *LabelBuilder) WithArchitecture(arch string) *LabelBuilder {
	lb.labels[KeyArchitecture] = arch
	return lb
}

// Merge adds all labels from the provided map.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	for k, v := range extra {
		lb.labels[k] = v
	}
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// SelectorForPullRequest returns a label selector matching every managed
// resource of a pull request environment.
func SelectorForPullRequest(pr int) string {
	return KeyManagedBy + "=" + ManagedByStagehand + "," + KeyPullRequest + "=" + strconv.Itoa(pr)
}

// SelectorForKind returns a label selector matching managed resources of the
// given kind.
func SelectorForKind(kind string) string {
	return KeyManagedBy + "=" + ManagedByStagehand + "," + KeyKind + "=" + kind
}
