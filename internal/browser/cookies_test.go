package browser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCookies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
  {"name": "session", "value": "abc", "domain": ".x.test", "path": "/", "expires": 1893456000, "httpOnly": true, "secure": true, "sameSite": "Lax"},
  {"name": "pref", "value": "dark", "domain": "x.test"}
]`), 0644))

	cookies, err := LoadCookies(path)
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	assert.Equal(t, "session", cookies[0].Name)
	assert.Equal(t, ".x.test", *cookies[0].Domain)
	assert.Equal(t, float64(1893456000), *cookies[0].Expires)
	assert.True(t, *cookies[0].HttpOnly)
	assert.True(t, *cookies[0].Secure)
	assert.Equal(t, playwright.SameSiteAttributeLax, cookies[0].SameSite)

	assert.Equal(t, "/", *cookies[1].Path)
	assert.Nil(t, cookies[1].Expires)
	assert.Nil(t, cookies[1].SameSite)
}

func TestLoadCookies_Errors(t *testing.T) {
	_, err := LoadCookies(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))
	_, err = LoadCookies(path)
	assert.Error(t, err)
}
