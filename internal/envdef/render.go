package envdef

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

const generatedHeader = "# Generated by stagehand. Do not edit; the pipeline owns this file.\n\n"

// Render produces the Terraform source for one definition: the server
// resource, an optional firewall data source and reverse DNS record, and
// the output exporting the reachable address.
func Render(d Definition) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	f := hclwrite.NewEmptyFile()
	body := f.Body()

	if d.FirewallName != "" {
		fw := body.AppendNewBlock("data", []string{"hcloud_firewall", d.Name})
		fw.Body().SetAttributeValue("name", cty.StringVal(d.FirewallName))
		body.AppendNewline()
	}

	server := body.AppendNewBlock("resource", []string{"hcloud_server", d.Name})
	sb := server.Body()
	sb.SetAttributeValue("name", cty.StringVal(d.ServerName()))
	sb.SetAttributeValue("image", cty.StringVal(d.ImageID))
	sb.SetAttributeValue("server_type", cty.StringVal(d.ServerType))
	sb.SetAttributeValue("location", cty.StringVal(d.Location))

	if d.SSHKeyName != "" {
		sb.SetAttributeValue("ssh_keys", cty.ListVal([]cty.Value{cty.StringVal(d.SSHKeyName)}))
	}

	if d.FirewallName != "" {
		fwID := hcl.Traversal{
			hcl.TraverseRoot{Name: "data"},
			hcl.TraverseAttr{Name: "hcloud_firewall"},
			hcl.TraverseAttr{Name: d.Name},
			hcl.TraverseAttr{Name: "id"},
		}
		sb.SetAttributeRaw("firewall_ids", hclwrite.TokensForTuple([]hclwrite.Tokens{
			hclwrite.TokensForTraversal(fwID),
		}))
	}

	if len(d.Labels) > 0 {
		values := make(map[string]cty.Value, len(d.Labels))
		for k, v := range d.Labels {
			values[k] = cty.StringVal(v)
		}
		sb.SetAttributeValue("labels", cty.MapVal(values))
	}

	serverAttr := func(attr string) hcl.Traversal {
		return hcl.Traversal{
			hcl.TraverseRoot{Name: "hcloud_server"},
			hcl.TraverseAttr{Name: d.Name},
			hcl.TraverseAttr{Name: attr},
		}
	}

	if d.BaseDomain != "" {
		body.AppendNewline()
		rdns := body.AppendNewBlock("resource", []string{"hcloud_rdns", d.Name})
		rb := rdns.Body()
		rb.SetAttributeTraversal("server_id", serverAttr("id"))
		rb.SetAttributeTraversal("ip_address", serverAttr("ipv4_address"))
		rb.SetAttributeValue("dns_ptr", cty.StringVal(d.FQDN()))
	}

	body.AppendNewline()
	output := body.AppendNewBlock("output", []string{d.OutputName})
	ob := output.Body()
	if d.BaseDomain != "" {
		ob.SetAttributeValue("value", cty.StringVal(d.FQDN()))
	} else {
		ob.SetAttributeTraversal("value", serverAttr("ipv4_address"))
	}
	ob.SetAttributeValue("description", cty.StringVal(
		fmt.Sprintf("Reachable address of environment %s", d.Name)))

	return append([]byte(generatedHeader), f.Bytes()...), nil
}
