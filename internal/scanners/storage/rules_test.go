package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobaudit/mobaudit/internal/suppress"
	"github.com/mobaudit/mobaudit/internal/types"
)

func evalRule(t *testing.T, id, path, data string) []types.Finding {
	t.Helper()
	set := NewRules(suppress.NewPolicy())
	for _, r := range set.Rules() {
		if r.ID() != id {
			continue
		}
		fs, err := r.Evaluate(path, []byte(data))
		require.NoError(t, err)
		return fs
	}
	t.Fatalf("rule %s not found", id)
	return nil
}

func TestSensitivePrefWrite_KeyNameOnlyIsMedium(t *testing.T) {
	fs := evalRule(t, "storage-sensitive-pref-write", "lib/session.dart", `
await prefs.setString("auth_token", token);
await prefs.setString("theme", "dark");
`)
	require.Len(t, fs, 1)
	f := fs[0]
	assert.Equal(t, types.SevMedium, f.Severity)
	assert.Equal(t, types.ConfMedium, f.Confidence, "key name alone is not HIGH confidence")
	assert.Equal(t, "auth_token", f.Snippet)
	assert.Equal(t, 2, f.Line)
}

func TestSensitivePrefWrite_Corroborated(t *testing.T) {
	fs := evalRule(t, "storage-sensitive-pref-write", "lib/session.dart", `
final prefs = await SharedPreferences.getInstance();
await prefs.setString("auth_token", token);
`)
	require.Len(t, fs, 1)
	assert.Equal(t, types.ConfHigh, fs[0].Confidence, "unencrypted store call site corroborates")
}

func TestSensitivePrefWrite_SecureStoreWithdrawsCorroboration(t *testing.T) {
	fs := evalRule(t, "storage-sensitive-pref-write", "lib/session.dart", `
final prefs = await SharedPreferences.getInstance();
final secure = FlutterSecureStorage();
await prefs.setString("auth_token", token);
`)
	require.Len(t, fs, 1)
	assert.Equal(t, types.ConfMedium, fs[0].Confidence)
}

func TestSensitivePrefWrite_SwiftForKey(t *testing.T) {
	fs := evalRule(t, "storage-sensitive-pref-write", "ios/Runner/Session.swift", `
UserDefaults.standard.set(value, forKey: "refresh_token")
`)
	require.Len(t, fs, 1)
	assert.Equal(t, "refresh_token", fs[0].Snippet)
	assert.Equal(t, types.ConfHigh, fs[0].Confidence, "UserDefaults.standard corroborates")
}

func TestSensitivePrefWrite_PlaceholderValueIsLow(t *testing.T) {
	fs := evalRule(t, "storage-sensitive-pref-write", "lib/session.dart", `
final prefs = await SharedPreferences.getInstance();
await prefs.setString("auth_token", "YOUR_TOKEN_GOES_HERE");
`)
	require.Len(t, fs, 1)
	assert.Equal(t, types.ConfLow, fs[0].Confidence, "literal placeholder value marks sample code")
}

func TestPlaintextFileWrite(t *testing.T) {
	fs := evalRule(t, "storage-plaintext-file-write", "lib/export.dart", `
await tokenFile.writeAsString(password);
await logFile.writeAsString(line);
`)
	require.Len(t, fs, 1)
	assert.Equal(t, 2, fs[0].Line)
	assert.Equal(t, types.SevMedium, fs[0].Severity)
}

func TestUnencryptedDB(t *testing.T) {
	fs := evalRule(t, "storage-unencrypted-db", "lib/db.dart", `
final db = await openDatabase(path);
`)
	require.Len(t, fs, 1)
	assert.Equal(t, types.SevMedium, fs[0].Severity)

	fs = evalRule(t, "storage-unencrypted-db", "lib/db.dart", `
final db = await openDatabase(path, password: encryptionKey);
`)
	assert.Empty(t, fs, "cipher evidence anywhere in the file clears it")
}

func TestBackupEnabled(t *testing.T) {
	fs := evalRule(t, "storage-backup-enabled", "android/app/src/main/AndroidManifest.xml", `
<application android:allowBackup="true" android:label="demo">
`)
	require.Len(t, fs, 1)
	assert.Equal(t, types.ConfHigh, fs[0].Confidence)

	fs = evalRule(t, "storage-backup-enabled", "AndroidManifest.xml", `<application android:allowBackup="false"/>`)
	assert.Empty(t, fs)
}

func TestFileSharingEnabled(t *testing.T) {
	sharing := `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0"><dict>
  <key>UIFileSharingEnabled</key><true/>
</dict></plist>`
	fs := evalRule(t, "storage-file-sharing-enabled", "ios/Runner/Info.plist", sharing)
	require.Len(t, fs, 1)
	assert.Equal(t, types.SevMedium, fs[0].Severity)

	off := `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0"><dict>
  <key>UIFileSharingEnabled</key><false/>
</dict></plist>`
	assert.Empty(t, evalRule(t, "storage-file-sharing-enabled", "Info.plist", off))
}
