package network

import (
	"fmt"
	"sort"

	plist "howett.net/plist"

	"github.com/mobaudit/mobaudit/internal/catalog"
	"github.com/mobaudit/mobaudit/internal/rules"
	"github.com/mobaudit/mobaudit/internal/types"
)

// atsRule inspects iOS property lists for App Transport Security overrides.
// Plists need real dict parsing (nested keys, <true/>), so this is a file
// rule over the plist role rather than a line pattern.
func atsRule() rules.Rule {
	return &rules.FileRule{
		RuleID:    "net-ats-disabled",
		Cat:       types.CatNetwork,
		FileRoles: []catalog.Role{catalog.RolePlist},
		Check: func(path string, data []byte) ([]types.Finding, error) {
			var doc map[string]interface{}
			if _, err := plist.Unmarshal(data, &doc); err != nil {
				// not an XML/binary plist we understand; not a finding
				return nil, fmt.Errorf("plist %s: %w", path, err)
			}
			ats, ok := doc["NSAppTransportSecurity"].(map[string]interface{})
			if !ok {
				return nil, nil
			}
			var out []types.Finding
			if b, _ := ats["NSAllowsArbitraryLoads"].(bool); b {
				out = append(out, types.Finding{
					RuleID:      "net-ats-disabled",
					Category:    types.CatNetwork,
					Severity:    types.SevCritical,
					Confidence:  types.ConfHigh,
					FilePath:    path,
					Message:     "App Transport Security is globally disabled (NSAllowsArbitraryLoads)",
					Remediation: "Remove the global override; grant per-domain exceptions only where unavoidable.",
				})
			}
			if exceptions, ok := ats["NSExceptionDomains"].(map[string]interface{}); ok {
				domains := make([]string, 0, len(exceptions))
				for d := range exceptions {
					domains = append(domains, d)
				}
				sort.Strings(domains)
				for _, d := range domains {
					cfg, ok := exceptions[d].(map[string]interface{})
					if !ok {
						continue
					}
					if b, _ := cfg["NSExceptionAllowsInsecureHTTPLoads"].(bool); b {
						out = append(out, types.Finding{
							RuleID:      "net-ats-disabled",
							Category:    types.CatNetwork,
							Severity:    types.SevHigh,
							Confidence:  types.ConfHigh,
							FilePath:    path,
							Snippet:     d,
							Message:     fmt.Sprintf("ATS exception allows insecure HTTP loads for %q", d),
							Remediation: "Serve the domain over https and drop the exception.",
						})
					}
				}
			}
			return out, nil
		},
	}
}
