// Package report renders pull request status comments. Rendering is pure:
// the pipeline decides what happened, this package only turns it into a
// short Markdown block.
package report

import (
	"fmt"
	"strings"
)

// detailLimit bounds how much tool output a comment embeds. GitHub rejects
// comments over 64 KiB; failures show up at the end of tool output, so the
// tail is kept.
const detailLimit = 16384

// Attribution identifies who and what triggered a pipeline run.
type Attribution struct {
	// Actor is the user the run acts on behalf of.
	Actor string

	// Event names the trigger, for example "manual" or "workflow_dispatch".
	Event string

	// RunID is the pipeline run identifier.
	RunID string
}

// Success renders the comment for a fully deployed environment.
func Success(env, address string, a Attribution) string {
	var sb strings.Builder
	sb.WriteString("### Staging environment ready\n\n")
	fmt.Fprintf(&sb, "Environment `%s` is deployed and reachable at http://%s\n", env, address)
	writeAttribution(&sb, a)
	return sb.String()
}

// PlanFailed renders the comment for a failed Terraform plan. The failure
// detail is always embedded so the comment alone explains the outcome.
func PlanFailed(env, detail string, a Attribution) string {
	return failure("plan", fmt.Sprintf("Terraform plan for `%s` failed.", env), "Plan output", detail, a)
}

// ApplyFailed renders the comment for a failed Terraform apply.
func ApplyFailed(env, detail string, a Attribution) string {
	return failure("apply", fmt.Sprintf("Terraform apply for `%s` failed.", env), "Apply output", detail, a)
}

// DeployFailed renders the comment for a provisioned environment whose
// application deploy failed. The address is included when the instance
// exists, so manual diagnosis has somewhere to start.
func DeployFailed(env, address, detail string, a Attribution) string {
	intro := fmt.Sprintf("Deploy to `%s` failed.", env)
	if address != "" {
		intro = fmt.Sprintf("Deploy to `%s` (http://%s) failed.", env, address)
	}
	return failure("deploy", intro, "Deploy output", detail, a)
}

// InvalidRequest renders the comment for a rejected pull request reference.
func InvalidRequest(reason string, a Attribution) string {
	var sb strings.Builder
	sb.WriteString("### Staging deployment rejected\n\n")
	sb.WriteString(reason)
	sb.WriteString("\n")
	writeAttribution(&sb, a)
	return sb.String()
}

func failure(phase, intro, summary, detail string, a Attribution) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### Staging deployment failed: %s\n\n", phase)
	sb.WriteString(intro)
	sb.WriteString("\n")
	if strings.TrimSpace(detail) != "" {
		sb.WriteString("\n<details>\n<summary>")
		sb.WriteString(summary)
		sb.WriteString("</summary>\n\n")
		sb.WriteString(codeBlock(trimDetail(detail)))
		sb.WriteString("\n</details>\n")
	}
	writeAttribution(&sb, a)
	return sb.String()
}

func writeAttribution(sb *strings.Builder, a Attribution) {
	parts := make([]string, 0, 3)
	if a.Actor != "" {
		parts = append(parts, "triggered by @"+a.Actor)
	}
	if a.Event != "" {
		parts = append(parts, "via "+a.Event)
	}
	if a.RunID != "" {
		parts = append(parts, "run "+a.RunID)
	}
	if len(parts) == 0 {
		return
	}
	parts[0] = strings.ToUpper(parts[0][:1]) + parts[0][1:]
	fmt.Fprintf(sb, "\n_%s_\n", strings.Join(parts, ", "))
}

// codeBlock fences s, widening the fence when s itself contains backtick
// runs that would terminate it.
func codeBlock(s string) string {
	fence := "```"
	for strings.Contains(s, fence) {
		fence += "`"
	}
	return fence + "\n" + strings.TrimRight(s, "\n") + "\n" + fence + "\n"
}

// trimDetail keeps the tail of over-long tool output.
func trimDetail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= detailLimit {
		return s
	}
	return "... (truncated)\n" + s[len(s)-detailLimit:]
}
