package transfer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"OTPKeeper/internal/crypto"
	"OTPKeeper/internal/model"
	"OTPKeeper/internal/vault"
)

const (
	s1 = "JBSWY3DPEHPK3PXP"
	s2 = "GEZDGNBVGY3TQOJQ"
)

var testNow = time.Date(2024, 5, 5, 10, 0, 0, 0, time.Local)

type journalMock struct{ mock.Mock }

func (m *journalMock) Record(ctx context.Context, kind, cause string) error {
	return m.Called(ctx, kind, cause).Error(0)
}

func newCipher(t *testing.T, id string) *crypto.Cipher {
	t.Helper()
	key, err := crypto.DeriveKey(crypto.StaticIdentifier(id))
	require.NoError(t, err)
	c, err := crypto.NewCipher(key)
	require.NoError(t, err)
	return c
}

func setup(t *testing.T, opts ...Option) (*vault.Engine, *Engine, string) {
	t.Helper()
	dir := t.TempDir()
	v, err := vault.New(filepath.Join(dir, vault.FileName), newCipher(t, "test-host"), zap.NewNop().Sugar(),
		vault.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return v, New(v, zap.NewNop().Sugar(), opts...), dir
}

func save(t *testing.T, v *vault.Engine, issuer, label, secret string) {
	t.Helper()
	ok, err := v.SaveNewAccount(model.NewOtpRecord(issuer, label, secret))
	require.NoError(t, err)
	require.True(t, ok)
}

func plain(t *testing.T, v *vault.Engine, a model.Account) string {
	t.Helper()
	s, err := a.PlainSecret(v.Cipher())
	require.NoError(t, err)
	return s
}

func TestExportURI_ImportRoundTrip(t *testing.T) {
	v, tr, dir := setup(t)
	save(t, v, "Second", "bob", s2)
	save(t, v, "First Co", "alice@acme.com", s1)
	before := v.Accounts()

	path := filepath.Join(dir, "export.txt")
	require.NoError(t, tr.Export(path, FormatURI))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"otpauth://totp/First%20Co:alice%40acme.com?secret=JBSWY3DPEHPK3PXP&issuer=First%20Co\n"+
			"otpauth://totp/Second:bob?secret=GEZDGNBVGY3TQOJQ&issuer=Second\n",
		string(data))

	require.NoError(t, v.ReplaceAll(nil))
	require.Empty(t, v.Accounts())

	conflicts, err := tr.Import(path)
	require.NoError(t, err)
	assert.Equal(t, 0, conflicts)

	after := v.Accounts()
	require.Len(t, after, 2)
	for i := range before {
		assert.Equal(t, before[i].Identity(), after[i].Identity())
		assert.NotEqual(t, s1, after[i].Secret)
		assert.Equal(t, plain(t, v, before[i]), plain(t, v, after[i]))
	}
}

func TestExportURI_LineBreakSecretNeverStored(t *testing.T) {
	v, tr, dir := setup(t)
	for _, secret := range []string{"JBSWY3DP\nEHPK3PXP", "JBSWY3DP\r\nEHPK3PXP"} {
		_, err := v.SaveNewAccount(model.NewOtpRecord("Acme", "alice", secret))
		assert.ErrorIs(t, err, model.ErrInvalidSecret)
	}
	save(t, v, "Acme", "alice", s1)

	path := filepath.Join(dir, "export.txt")
	require.NoError(t, tr.Export(path, FormatURI))
	require.NoError(t, v.ReplaceAll(nil))

	conflicts, err := tr.Import(path)
	require.NoError(t, err)
	assert.Equal(t, 0, conflicts)
	list := v.Accounts()
	require.Len(t, list, 1)
	assert.Equal(t, s1, plain(t, v, list[0]))
}

func TestImport_ConflictMarksIssuer(t *testing.T) {
	j := &journalMock{}
	j.On("Record", mock.Anything, model.EventImport, mock.Anything).Return(nil).Once()

	v, tr, dir := setup(t, WithJournal(j))
	save(t, v, "GitHub", "me", s1)

	path := filepath.Join(dir, "import.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"issuer":"GitHub","label":"me","secret":"`+s2+`"}]`), 0o600))

	conflicts, err := tr.Import(path)
	require.NoError(t, err)
	assert.Equal(t, 1, conflicts)

	list := v.Accounts()
	require.Len(t, list, 2)
	assert.Equal(t, model.Identity{Issuer: "GitHub", Label: "me"}, list[0].Identity())
	assert.Equal(t, s1, plain(t, v, list[0]))
	assert.Equal(t, model.Identity{Issuer: "GitHub!", Label: "me"}, list[1].Identity())
	assert.Equal(t, s2, plain(t, v, list[1]))
	assert.Equal(t, "2024-05-05 10:00:00", list[1].LastUsed.String())
	j.AssertExpectations(t)
}

func TestImport_DuplicatesLeaveVaultUnchanged(t *testing.T) {
	v, tr, dir := setup(t)
	save(t, v, "A", "a", s1)
	save(t, v, "B", "b", s2)

	path := filepath.Join(dir, "export.json")
	require.NoError(t, tr.Export(path, FormatJSON))
	before, err := os.ReadFile(v.Path())
	require.NoError(t, err)

	conflicts, err := tr.Import(path)
	require.NoError(t, err)
	assert.Equal(t, 0, conflicts)

	after, err := os.ReadFile(v.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestExport_AfterRekeyUsesNewCipher(t *testing.T) {
	v, tr, dir := setup(t)
	save(t, v, "Acme", "alice", s1)
	_, err := v.Rekey(newCipher(t, "other-host"))
	require.NoError(t, err)

	path := filepath.Join(dir, "export.txt")
	require.NoError(t, tr.Export(path, FormatURI))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "otpauth://totp/Acme:alice?secret="+s1+"&issuer=Acme\n", string(data))
}

func TestExportJSON_PlaintextShape(t *testing.T) {
	v, tr, dir := setup(t)
	save(t, v, "A", "a", s1)

	path := filepath.Join(dir, "export.json")
	require.NoError(t, tr.Export(path, FormatJSON))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"issuer":"A","label":"a","secret":"JBSWY3DPEHPK3PXP","last_used":"2024-05-05 10:00:00","used_frequency":0,"favorite":false,"icon":null}]`, string(data))
}

func TestBackupRestore(t *testing.T) {
	v, tr, dir := setup(t)
	save(t, v, "A", "a", s1)

	path := filepath.Join(dir, "backup.json")
	require.NoError(t, tr.Backup(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte('['), data[0], "backup is a bare array")
	assert.NotContains(t, string(data), s1)

	save(t, v, "B", "b", s2)
	require.Len(t, v.Accounts(), 2)

	n, err := tr.Restore(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	list := v.Accounts()
	require.Len(t, list, 1)
	assert.Equal(t, "A", list[0].Issuer)

	n, err = tr.Restore(v.Path())
	require.NoError(t, err, "a v1 vault file restores too")
	assert.Equal(t, 1, n)
}

func TestBackupExport_EmptyVault(t *testing.T) {
	_, tr, dir := setup(t)
	assert.ErrorIs(t, tr.Backup(filepath.Join(dir, "b.json")), ErrVaultEmpty)
	assert.ErrorIs(t, tr.Export(filepath.Join(dir, "e.json"), FormatJSON), ErrVaultEmpty)
}

func TestBackup_UnwritablePath(t *testing.T) {
	v, tr, dir := setup(t)
	save(t, v, "A", "a", s1)
	err := tr.Backup(filepath.Join(dir, "missing-dir", "b.json"))
	assert.Error(t, err)
}

func TestStatusCodes(t *testing.T) {
	v, tr, dir := setup(t)
	save(t, v, "A", "a", s1)

	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
		return p
	}

	_, err := tr.Import(filepath.Join(dir, "nope.json"))
	assert.Equal(t, StatusFileMissing, StatusOf(err))

	_, err = tr.Import(dir)
	assert.Equal(t, StatusReadFailure, StatusOf(err))

	_, err = tr.Import(write("bad.json", `[{"issuer":"A"`))
	assert.Equal(t, StatusJSONParse, StatusOf(err))

	_, err = tr.Import(write("missing.json", `[{"issuer":"A","label":"a"}]`))
	assert.Equal(t, StatusJSONParse, StatusOf(err))

	_, err = tr.Import(write("bad.txt", "otpauth://totp/A:a?secret=JBSWY3DPEHPK3PXP&issuer=A\notpauth://hotp/B:b?secret=JBSWY3DPEHPK3PXP&issuer=B\n"))
	assert.Equal(t, StatusURIParse, StatusOf(err))
	assert.Len(t, v.Accounts(), 1, "a bad URI aborts the whole import")

	_, err = tr.Restore(write("notjson.json", `nope`))
	assert.Equal(t, StatusJSONParse, StatusOf(err))

	foreign, err := newCipher(t, "other-host").Encrypt(s1)
	require.NoError(t, err)
	_, err = tr.Restore(write("foreign.json", `[{"issuer":"X","label":"x","secret":"`+foreign+`","last_used":"2024-01-01 00:00:00","used_frequency":0,"favorite":false,"icon":null}]`))
	assert.Equal(t, StatusUnexpected, StatusOf(err))
	assert.Equal(t, "A", v.Accounts()[0].Issuer)

	assert.Equal(t, StatusOK, StatusOf(nil))
	assert.Equal(t, StatusUnexpected, StatusOf(errors.New("boom")))
	assert.Equal(t, "file not found", StatusFileMissing.Reason())
}

func TestImportPreview_DoesNotTouchVault(t *testing.T) {
	v, tr, dir := setup(t)
	path := filepath.Join(dir, "preview.json")
	require.NoError(t, os.WriteFile(path, []byte(`
		[{"issuer":"A","label":"a","secret":"jbswy3dpehpk3pxp","used_frequency":3,"favorite":true,"icon":"github","last_used":"2023-02-03 04:05:06"},
		 {"issuer":"B","label":"b","secret":"GEZDGNBVGY3TQOJQ"}]`), 0o600))

	entries, err := tr.ImportPreview(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, s1, entries[0].Record.Secret())
	assert.Equal(t, 3, entries[0].UsedFrequency)
	assert.True(t, entries[0].Favorite)
	require.NotNil(t, entries[0].Icon)
	assert.Equal(t, "github", *entries[0].Icon)
	require.NotNil(t, entries[0].LastUsed)
	assert.Equal(t, "2023-02-03 04:05:06", entries[0].LastUsed.String())
	assert.Nil(t, entries[1].LastUsed)
	assert.Empty(t, v.Accounts())

	_, err = tr.Import(path)
	require.NoError(t, err)
	list := v.Accounts()
	require.Len(t, list, 2)
	assert.Equal(t, 3, list[0].UsedFrequency)
	assert.Equal(t, "github", list[0].IconName())
	assert.Equal(t, "2024-05-05 10:00:00", list[1].LastUsed.String())
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatURI, DetectFormat([]byte("\n  otpauth://totp/x")))
	assert.Equal(t, FormatURI, DetectFormat([]byte("OTPAUTH://totp/x")))
	assert.Equal(t, FormatJSON, DetectFormat([]byte(" [ ]")))
	assert.Equal(t, FormatJSON, DetectFormat(nil))

	f, err := ParseFormat("URI")
	require.NoError(t, err)
	assert.Equal(t, FormatURI, f)
	_, err = ParseFormat("csv")
	assert.Error(t, err)
}

func TestMerge_RepeatedConflicts(t *testing.T) {
	c := newCipher(t, "test-host")
	a, err := model.NewOtpRecord("GitHub", "me", s1).Seal(c, testNow)
	require.NoError(t, err)
	b, err := model.NewOtpRecord("GitHub!", "me", s2).Seal(c, testNow)
	require.NoError(t, err)

	third := "MZXW6YTBOI"
	out, n, err := Merge([]model.Account{a, b}, []ImportedEntry{
		{Record: model.NewOtpRecord("GitHub", "me", third)},
		{Record: model.NewOtpRecord("GitHub", "me", s2)},
		{Record: model.NewOtpRecord("New", "me", s1)},
	}, c, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the exact copy of GitHub! is skipped")
	require.Len(t, out, 4)
	assert.Equal(t, "GitHub!!", out[2].Issuer)
	assert.Equal(t, "New", out[3].Issuer)
	assert.True(t, a.Equal(out[0]))
	assert.True(t, b.Equal(out[1]))
}
