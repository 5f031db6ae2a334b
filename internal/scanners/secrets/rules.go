// Package secrets detects embedded credentials in source and configuration
// files: cloud access keys, API keys, bearer tokens, passwords, and
// service-backend configuration keys.
package secrets

import (
	"regexp"
	"strings"

	"github.com/mobaudit/mobaudit/internal/catalog"
	"github.com/mobaudit/mobaudit/internal/rules"
	"github.com/mobaudit/mobaudit/internal/suppress"
	"github.com/mobaudit/mobaudit/internal/types"
)

var textRoles = []catalog.Role{
	catalog.RoleSource,
	catalog.RoleConfig,
	catalog.RoleBuildConfig,
	catalog.RolePlatformConfig,
	catalog.RolePlist,
	catalog.RoleManifest,
}

var (
	reAWSAccess   = regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)
	reAWSSecret   = regexp.MustCompile(`(?i)(?:aws_secret_access_key|aws_secret_key|secretAccessKey)["'\s:=]+([A-Za-z0-9/+=]{40})`)
	reGoogleKey   = regexp.MustCompile(`\bAIza[0-9A-Za-z_\-]{35}\b`)
	reSvcAccount  = regexp.MustCompile(`"type"\s*:\s*"service_account"`)
	rePrivKey     = regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY(?: BLOCK)?-----`)
	reGitHubToken = regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`)
	reSlackToken  = regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9-]{10,}\b`)
	reStripeLive  = regexp.MustCompile(`\bsk_live_[0-9a-zA-Z]{24,}\b`)
	reStripeTest  = regexp.MustCompile(`\bsk_test_[0-9a-zA-Z]{24,}\b`)
	reBearer      = regexp.MustCompile(`(?i)\bbearer\s+([A-Za-z0-9._~+/\-]{20,}=*)`)
	reGenericCtx  = regexp.MustCompile(`(?i)(api[_-]?key|apikey|auth[_-]?token|access[_-]?token|client[_-]?secret|secret[_-]?key|\bsecret\b|\btoken\b)`)
	reGenericVal  = regexp.MustCompile(`["']([A-Za-z0-9+/=_\-]{20,})["']`)
	rePasswordKV  = regexp.MustCompile(`(?i)\bpassword\s*[:=]\s*["']([^"']{4,})["']`)
)

// NewRules builds the secrets rule table with the shared suppression policy
// wired into each rule's classifier.
func NewRules(pol *suppress.Policy) *rules.Set {
	placeholderAware := func(sev types.Severity, conf types.Confidence) func(string, string) (types.Severity, types.Confidence, bool) {
		return func(match, _ string) (types.Severity, types.Confidence, bool) {
			if pol.IsPlaceholder(match) {
				return types.SevLow, types.ConfLow, true
			}
			return sev, conf, true
		}
	}

	return rules.NewSet(types.CatSecrets,
		&rules.LineRule{
			RuleID:      "secret-aws-access-key",
			Cat:         types.CatSecrets,
			FileRoles:   textRoles,
			Pattern:     reAWSAccess,
			Severity:    types.SevHigh,
			Confidence:  types.ConfHigh,
			Message:     "AWS access key ID embedded in the project",
			Remediation: "Rotate the key and move it to a secret manager or server-side config.",
			Redact:      true,
		},
		&rules.LineRule{
			RuleID:      "secret-aws-secret-key",
			Cat:         types.CatSecrets,
			FileRoles:   textRoles,
			Pattern:     reAWSSecret,
			Group:       1,
			Severity:    types.SevCritical,
			Confidence:  types.ConfHigh,
			Message:     "AWS secret access key embedded in the project",
			Remediation: "Rotate the key immediately; a secret key grants write access to the account.",
			Redact:      true,
			Classify:    placeholderAware(types.SevCritical, types.ConfHigh),
		},
		&rules.LineRule{
			RuleID:      "secret-google-api-key",
			Cat:         types.CatSecrets,
			FileRoles:   textRoles,
			Pattern:     reGoogleKey,
			Severity:    types.SevHigh,
			Confidence:  types.ConfHigh,
			Message:     "Google/Firebase API key embedded in the project",
			Remediation: "Restrict the key by app signature and API scope in the cloud console.",
			Redact:      true,
		},
		&rules.LineRule{
			RuleID:      "secret-gcp-service-account",
			Cat:         types.CatSecrets,
			FileRoles:   []catalog.Role{catalog.RoleConfig, catalog.RoleSource},
			Pattern:     reSvcAccount,
			Severity:    types.SevCritical,
			Confidence:  types.ConfHigh,
			Message:     "GCP service-account credential file shipped with the app",
			Remediation: "Service-account keys must never ship in a client; issue scoped tokens from a backend.",
		},
		&rules.LineRule{
			RuleID:      "secret-private-key-block",
			Cat:         types.CatSecrets,
			FileRoles:   textRoles,
			Pattern:     rePrivKey,
			Severity:    types.SevCritical,
			Confidence:  types.ConfHigh,
			Message:     "Private key material embedded in the project",
			Remediation: "Remove the key from the tree and rotate it.",
		},
		&rules.LineRule{
			RuleID:      "secret-github-token",
			Cat:         types.CatSecrets,
			FileRoles:   textRoles,
			Pattern:     reGitHubToken,
			Severity:    types.SevHigh,
			Confidence:  types.ConfHigh,
			Message:     "GitHub token embedded in the project",
			Remediation: "Revoke the token and use CI-provided credentials instead.",
			Redact:      true,
		},
		&rules.LineRule{
			RuleID:      "secret-slack-token",
			Cat:         types.CatSecrets,
			FileRoles:   textRoles,
			Pattern:     reSlackToken,
			Severity:    types.SevHigh,
			Confidence:  types.ConfHigh,
			Message:     "Slack token embedded in the project",
			Remediation: "Revoke the token in the Slack admin console.",
			Redact:      true,
		},
		&rules.LineRule{
			RuleID:      "secret-stripe-live-key",
			Cat:         types.CatSecrets,
			FileRoles:   textRoles,
			Pattern:     reStripeLive,
			Severity:    types.SevCritical,
			Confidence:  types.ConfHigh,
			Message:     "Stripe live-mode secret key embedded in the project",
			Remediation: "Roll the key; live-mode keys can move money.",
			Redact:      true,
		},
		&rules.LineRule{
			RuleID:      "secret-stripe-test-key",
			Cat:         types.CatSecrets,
			FileRoles:   textRoles,
			Pattern:     reStripeTest,
			Severity:    types.SevLow,
			Confidence:  types.ConfHigh,
			Message:     "Stripe test-mode secret key embedded in the project",
			Remediation: "Keep test keys out of source control to avoid habits that leak live ones.",
			Redact:      true,
		},
		&rules.LineRule{
			RuleID:      "secret-bearer-token",
			Cat:         types.CatSecrets,
			FileRoles:   textRoles,
			Pattern:     reBearer,
			Group:       1,
			Severity:    types.SevHigh,
			Confidence:  types.ConfMedium,
			Message:     "Hardcoded bearer token in an authorization header",
			Remediation: "Acquire tokens at runtime; never bake them into the binary.",
			Redact:      true,
			Classify:    placeholderAware(types.SevHigh, types.ConfMedium),
		},
		&rules.LineRule{
			RuleID:      "secret-generic-api-key",
			Cat:         types.CatSecrets,
			FileRoles:   textRoles,
			Context:     reGenericCtx,
			Pattern:     reGenericVal,
			Group:       1,
			Severity:    types.SevHigh,
			Confidence:  types.ConfMedium,
			Message:     "High-entropy value assigned to a credential-named key",
			Remediation: "If this is a real credential, rotate it and load it from secure storage at runtime.",
			Redact:      true,
			Accept: func(match, _ string) bool {
				return shannonEntropy(match) >= genericEntropyGate && len(match) <= 200
			},
			Classify: placeholderAware(types.SevHigh, types.ConfMedium),
		},
		&rules.LineRule{
			RuleID:      "secret-password-literal",
			Cat:         types.CatSecrets,
			FileRoles:   textRoles,
			Pattern:     rePasswordKV,
			Group:       1,
			Severity:    types.SevHigh,
			Confidence:  types.ConfMedium,
			Message:     "Password literal assigned in source or configuration",
			Remediation: "Prompt for credentials or fetch them from the platform keystore.",
			Redact:      true,
			Accept: func(match, line string) bool {
				// skip obvious lookups of a password rather than assignments of one
				return !strings.Contains(strings.ToLower(line), "getstring(")
			},
			Classify: placeholderAware(types.SevHigh, types.ConfMedium),
		},
	)
}
