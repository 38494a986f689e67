package labels

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoder_Encode(t *testing.T) {
	e, err := New(map[string][]string{
		FieldServiceCategory: {"중식음식점", "커피-음료", "한식음식점"},
		FieldChangeIndicator: {"HH", "HL", "LH", "LL"},
	})
	require.NoError(t, err)

	code, err := e.Encode(FieldServiceCategory, "한식음식점")
	require.NoError(t, err)
	assert.Equal(t, 2, code)

	code, err = e.Encode(FieldChangeIndicator, "HH")
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	_, err = e.Encode(FieldChangeIndicator, "XX")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnknownCategory))

	_, err = e.Encode("region", "HH")
	assert.True(t, eris.Is(err, ErrUnknownCategory))

	assert.Equal(t, []string{"HH", "HL", "LH", "LL"}, e.Classes(FieldChangeIndicator))
}

func TestNew_RejectsBadVocabulary(t *testing.T) {
	_, err := New(map[string][]string{"a": {}})
	require.Error(t, err)

	_, err = New(map[string][]string{"a": {"x", "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "twice")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.yaml")
	content := "fields:\n  service_category: [중식음식점, 커피-음료, 한식음식점]\n  change_indicator: [HH, HL, LH, LL]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	e, err := Load(path)
	require.NoError(t, err)
	code, err := e.Encode(FieldServiceCategory, "커피-음료")
	require.NoError(t, err)
	assert.Equal(t, 1, code)

	jsonPath := filepath.Join(dir, "labels.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"fields": {"change_indicator": ["HH", "LL"]}}`), 0o600))
	e, err = Load(jsonPath)
	require.NoError(t, err)
	code, err = e.Encode(FieldChangeIndicator, "LL")
	require.NoError(t, err)
	assert.Equal(t, 1, code)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
