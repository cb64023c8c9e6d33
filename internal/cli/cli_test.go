package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/estatescout/internal/model"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	registerDefaults(v, model.DefaultConfig())
	v.SetEnvPrefix("ESTATESCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("sink.upload_api_key")
	return v
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newTestViper())
	require.NoError(t, err)

	want := model.DefaultConfig()
	assert.Equal(t, want.Eligibility, cfg.Eligibility)
	assert.Equal(t, want.Pacing, cfg.Pacing)
	assert.Equal(t, want.Cache, cfg.Cache)
	assert.Equal(t, want.Sink, cfg.Sink)
	assert.Equal(t, want.HTTP.Timeout, cfg.HTTP.Timeout)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ESTATESCOUT_SINK_KIND", "nats")
	t.Setenv("ESTATESCOUT_HTTP_TIMEOUT", "5s")
	t.Setenv("ESTATESCOUT_ELIGIBILITY_MIN_ESTATE_AGE_YEARS", "3")
	t.Setenv("ESTATESCOUT_SINK_UPLOAD_API_KEY", "secret")

	cfg, err := loadConfig(newTestViper())
	require.NoError(t, err)
	assert.Equal(t, "nats", cfg.Sink.Kind)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 3, cfg.Eligibility.MinEstateAgeYears)
	assert.Equal(t, "secret", cfg.Sink.UploadAPIKey)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pacing:
  between_cases:
    min: 1s
    max: 2s
sink:
  kind: directory
  dir: /tmp/estates
`), 0644))

	v := newTestViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, model.Interval{Min: time.Second, Max: 2 * time.Second}, cfg.Pacing.BetweenCases)
	assert.Equal(t, "directory", cfg.Sink.Kind)
	assert.Equal(t, "/tmp/estates", cfg.Sink.Dir)
	assert.Equal(t, model.DefaultConfig().Pacing.Reading, cfg.Pacing.Reading)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, writeDefaultConfig(path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg model.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, model.DefaultConfig().Eligibility, cfg.Eligibility)

	err = writeDefaultConfig(path, false)
	assert.ErrorContains(t, err, "already exists")
	assert.NoError(t, writeDefaultConfig(path, true))
}

func TestReportFileName(t *testing.T) {
	detail := &model.Report{Record: &model.CaseRecord{CaseNumber: "22E001713-100"}}
	listing := &model.Report{Kind: model.PageListing}

	tests := []struct {
		source string
		report *model.Report
		want   string
	}{
		{"snapshots/case.html", detail, "22E001713-100"},
		{"snapshots/search results.html", listing, "search-results"},
		{"https://portal.example.gov/search?q=a", nil, "search_q=a"},
		{"", nil, "report"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, reportFileName(tt.source, tt.report), tt.source)
	}
}
