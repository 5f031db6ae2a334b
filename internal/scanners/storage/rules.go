// Package storage inspects for sensitive data written to unencrypted local
// storage: preference stores keyed with credential vocabulary, plaintext
// file writes, unencrypted local databases, and backup/export exposure.
// The key-name heuristic cannot see values, so confidence is capped at
// MEDIUM unless an explicit unencrypted-store call site corroborates it.
package storage

import (
	"regexp"

	plist "howett.net/plist"

	"github.com/mobaudit/mobaudit/internal/catalog"
	"github.com/mobaudit/mobaudit/internal/rules"
	"github.com/mobaudit/mobaudit/internal/suppress"
	"github.com/mobaudit/mobaudit/internal/types"
)

var sourceRoles = []catalog.Role{catalog.RoleSource}

var (
	reSensitiveKey = `[^"']*(?i:token|password|passwd|secret|pin|credential|auth)[^"']*`

	rePrefWrite = regexp.MustCompile(`(?:\.(?:setString|setInt|setBool|set|putString|putInt|putBoolean)\(\s*["'](` + reSensitiveKey + `)["'])|(?:forKey:\s*["'](` + reSensitiveKey + `)["'])`)
	// value literal written alongside the key, when it is one
	rePrefValue = regexp.MustCompile(`,\s*["']([^"']+)["']\s*\)`)

	// explicit unencrypted key-value store call sites
	rePlainStore = regexp.MustCompile(`SharedPreferences\.getInstance|getSharedPreferences\s*\(|UserDefaults\.standard|NSUserDefaults`)
	// encrypted alternatives; their presence withdraws the corroboration
	reSecureStore = regexp.MustCompile(`FlutterSecureStorage|EncryptedSharedPreferences|Keychain|KeyStore`)

	reFileWrite     = regexp.MustCompile(`writeAsString|writeAsBytes|FileOutputStream|\.write\(to:`)
	reSensitiveWord = regexp.MustCompile(`(?i)token|password|passwd|secret|credential`)

	reDBOpen   = regexp.MustCompile(`openDatabase\s*\(|Room\.databaseBuilder|SQLiteOpenHelper|sqlite3_open`)
	reDBCipher = regexp.MustCompile(`(?i)sqlcipher|pragma\s+key|SupportFactory|encryptionKey`)

	reAllowBackup = regexp.MustCompile(`android:allowBackup\s*=\s*"true"`)
)

// NewRules builds the storage rule table.
func NewRules(pol *suppress.Policy) *rules.Set {
	return rules.NewSet(types.CatStorage,
		&rules.FileRule{
			RuleID:    "storage-sensitive-pref-write",
			Cat:       types.CatStorage,
			FileRoles: sourceRoles,
			Check: func(path string, data []byte) ([]types.Finding, error) {
				corroborated := rePlainStore.Match(data) && !reSecureStore.Match(data)
				fileConf := types.ConfMedium
				if corroborated {
					fileConf = types.ConfHigh
				}
				var out []types.Finding
				rules.EachLine(data, func(n int, text string) {
					m := rePrefWrite.FindStringSubmatch(text)
					if m == nil {
						return
					}
					key := m[1]
					if key == "" {
						key = m[2]
					}
					conf := fileConf
					// a literal placeholder value marks a sample, not a leak
					if vm := rePrefValue.FindStringSubmatch(text); vm != nil && pol.IsPlaceholder(vm[1]) {
						conf = types.ConfLow
					}
					out = append(out, types.Finding{
						RuleID:      "storage-sensitive-pref-write",
						Category:    types.CatStorage,
						Severity:    types.SevMedium,
						Confidence:  conf,
						FilePath:    path,
						Line:        n,
						Snippet:     rules.Truncate(key, 120),
						Message:     "sensitive-looking key written to an unencrypted preference store",
						Remediation: "Store credentials in the platform keystore (Keychain/KeyStore) instead.",
					})
				})
				return out, nil
			},
		},
		&rules.LineRule{
			RuleID:      "storage-plaintext-file-write",
			Cat:         types.CatStorage,
			FileRoles:   sourceRoles,
			Context:     reSensitiveWord,
			Pattern:     reFileWrite,
			Severity:    types.SevMedium,
			Confidence:  types.ConfMedium,
			Message:     "plaintext file write associated with sensitive-named data",
			Remediation: "Encrypt the payload before writing, or keep it in protected storage.",
		},
		&rules.FileRule{
			RuleID:    "storage-unencrypted-db",
			Cat:       types.CatStorage,
			FileRoles: sourceRoles,
			Check: func(path string, data []byte) ([]types.Finding, error) {
				if reDBCipher.Match(data) {
					return nil, nil
				}
				var out []types.Finding
				rules.EachLine(data, func(n int, text string) {
					if m := reDBOpen.FindString(text); m != "" {
						out = append(out, types.Finding{
							RuleID:      "storage-unencrypted-db",
							Category:    types.CatStorage,
							Severity:    types.SevMedium,
							Confidence:  types.ConfMedium,
							FilePath:    path,
							Line:        n,
							Snippet:     rules.Truncate(m, 120),
							Message:     "local database opened without an encryption layer",
							Remediation: "Use SQLCipher (or an encrypted wrapper) for databases holding user data.",
						})
					}
				})
				return out, nil
			},
		},
		&rules.LineRule{
			RuleID:      "storage-backup-enabled",
			Cat:         types.CatStorage,
			FileRoles:   []catalog.Role{catalog.RolePlatformConfig},
			Pattern:     reAllowBackup,
			Severity:    types.SevMedium,
			Confidence:  types.ConfHigh,
			Message:     "application data is included in device backups (allowBackup)",
			Remediation: `Set android:allowBackup="false" or scope backups with a fullBackupContent rule file.`,
		},
		backupPlistRule(),
	)
}

// backupPlistRule flags iTunes file sharing, which exports the app's
// Documents directory to any connected computer.
func backupPlistRule() rules.Rule {
	return &rules.FileRule{
		RuleID:    "storage-file-sharing-enabled",
		Cat:       types.CatStorage,
		FileRoles: []catalog.Role{catalog.RolePlist},
		Check: func(path string, data []byte) ([]types.Finding, error) {
			var doc map[string]interface{}
			if _, err := plist.Unmarshal(data, &doc); err != nil {
				return nil, nil // net-ats-disabled already reports unparseable plists
			}
			if b, _ := doc["UIFileSharingEnabled"].(bool); b {
				return []types.Finding{{
					RuleID:      "storage-file-sharing-enabled",
					Category:    types.CatStorage,
					Severity:    types.SevMedium,
					Confidence:  types.ConfHigh,
					FilePath:    path,
					Message:     "iTunes file sharing exposes the app's Documents directory",
					Remediation: "Disable UIFileSharingEnabled unless document export is a product feature.",
				}}, nil
			}
			return nil, nil
		},
	}
}
