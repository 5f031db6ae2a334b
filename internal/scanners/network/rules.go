// Package network inspects source and platform configuration for insecure
// transport: cleartext request URLs, disabled transport-security
// enforcement, and missing certificate pinning.
package network

import (
	"regexp"
	"strings"

	"github.com/mobaudit/mobaudit/internal/catalog"
	"github.com/mobaudit/mobaudit/internal/rules"
	"github.com/mobaudit/mobaudit/internal/suppress"
	"github.com/mobaudit/mobaudit/internal/types"
)

var sourceRoles = []catalog.Role{catalog.RoleSource, catalog.RoleConfig, catalog.RoleBuildConfig}

var (
	reHTTPURL  = regexp.MustCompile(`http://([A-Za-z0-9._\-]+(?::\d+)?)`)
	reHTTPSURL = regexp.MustCompile(`https://([A-Za-z0-9._\-]+(?::\d+)?)`)

	reCleartextManifest = regexp.MustCompile(`android:usesCleartextTraffic\s*=\s*"true"`)
	reCleartextNSC      = regexp.MustCompile(`cleartextTrafficPermitted\s*=\s*"true"`)

	rePinSet        = regexp.MustCompile(`<pin-set`)
	rePinnedDomains = regexp.MustCompile(`NSPinnedDomains`)
	rePinningPkg    = regexp.MustCompile(`(?m)^\s{2}(ssl_pinning_plugin|http_certificate_pinning|ssl_certificate_pinning)\s*:`)
)

// Hosts that appear in schema/namespace URIs, not in request URLs.
var schemaHosts = map[string]bool{
	"schemas.android.com": true,
	"www.w3.org":          true,
	"www.apple.com":       true,
	"apple.com":           true,
	"xmlns.jcp.org":       true,
	"maven.apache.org":    true,
}

// NewRules builds the network rule table with the host allowlist of the
// shared policy wired into the URL rule.
func NewRules(pol *suppress.Policy) *rules.Set {
	return rules.NewSet(types.CatNetwork,
		&rules.LineRule{
			RuleID:      "net-insecure-url",
			Cat:         types.CatNetwork,
			FileRoles:   sourceRoles,
			Pattern:     reHTTPURL,
			Severity:    types.SevHigh,
			Confidence:  types.ConfHigh,
			Message:     "request URL uses cleartext http",
			Remediation: "Use https; cleartext traffic is readable and modifiable on the network path.",
			Accept: func(match, _ string) bool {
				host := hostOf(match)
				return !schemaHosts[host] && !pol.HostAllowed(host)
			},
		},
		&rules.LineRule{
			RuleID:      "net-cleartext-permitted",
			Cat:         types.CatNetwork,
			FileRoles:   []catalog.Role{catalog.RolePlatformConfig},
			Pattern:     reCleartextManifest,
			Severity:    types.SevHigh,
			Confidence:  types.ConfHigh,
			Message:     "AndroidManifest globally permits cleartext traffic",
			Remediation: `Remove android:usesCleartextTraffic="true" or scope exceptions in a network security config.`,
		},
		&rules.LineRule{
			RuleID:      "net-cleartext-config",
			Cat:         types.CatNetwork,
			FileRoles:   []catalog.Role{catalog.RolePlatformConfig},
			Pattern:     reCleartextNSC,
			Severity:    types.SevHigh,
			Confidence:  types.ConfHigh,
			Message:     "network security config permits cleartext traffic",
			Remediation: "Limit cleartext to explicit debug domain-config blocks, never the base config.",
		},
		atsRule(),
	)
}

func hostOf(url string) string {
	h := strings.TrimPrefix(strings.TrimPrefix(url, "http://"), "https://")
	if i := strings.IndexAny(h, "/?#"); i >= 0 {
		h = h[:i]
	}
	if i := strings.LastIndex(h, ":"); i > 0 {
		h = h[:i]
	}
	return strings.ToLower(h)
}

// Finalize emits the project-level missing-pinning finding: the tree makes
// sensitive (https, non-allowlisted) network calls but carries no pinning
// configuration anywhere. At most one finding per run, at low confidence.
func Finalize(cat *catalog.Catalog, pol *suppress.Policy, findings []types.Finding) []types.Finding {
	sensitive := false
	pinned := false
	for _, f := range cat.Files {
		switch f.Role {
		case catalog.RoleSource, catalog.RoleConfig, catalog.RolePlatformConfig, catalog.RolePlist, catalog.RoleManifest:
		default:
			continue
		}
		data, err := f.Content()
		if err != nil || catalog.LooksBinary(data) {
			continue
		}
		text := string(data)
		if !pinned {
			if rePinSet.MatchString(text) || rePinnedDomains.MatchString(text) {
				pinned = true
			}
			if f.Role == catalog.RoleManifest && rePinningPkg.MatchString(text) {
				pinned = true
			}
		}
		if !sensitive && f.Role != catalog.RolePlatformConfig {
			for _, m := range reHTTPSURL.FindAllStringSubmatch(text, -1) {
				host := hostOf(m[0])
				if !schemaHosts[host] && !pol.HostAllowed(host) {
					sensitive = true
					break
				}
			}
		}
		if sensitive && pinned {
			break
		}
	}
	if sensitive && !pinned {
		findings = append(findings, types.Finding{
			RuleID:      "net-missing-cert-pinning",
			Category:    types.CatNetwork,
			Severity:    types.SevMedium,
			Confidence:  types.ConfLow,
			Message:     "project performs sensitive network calls without certificate pinning configuration",
			Remediation: "Pin the backend certificate or public key via NSPinnedDomains / a <pin-set> block.",
		})
	}
	return findings
}
