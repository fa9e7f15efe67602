package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// findDuplicateBlocks reports every block type in names that occurs more
// than once in blocks.
func findDuplicateBlocks(blocks hcl.Blocks, names ...string) hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, name := range names {
		var found *hcl.Block
		for _, block := range blocks {
			if block.Type != name {
				continue
			}
			if found != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate \"" + name + "\" block",
					Detail:   "Only one \"" + name + "\" block is allowed per file.",
					Subject:  &block.DefRange,
				})
			}
			found = block
		}
	}
	return diags
}
