package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-kfp/pkg/babyweight"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	fileName := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(fileName, []byte(content), 0o600))

	return fileName
}

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := values[key]

		return value, ok
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg, err := load("", "", env(nil))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, babyweight.DefaultOptions(), cfg.BuildOptions())
	assert.Equal(t, "babyweight.tar.gz", cfg.Output.Archive)
	assert.Equal(t, 5, cfg.Publish.MaxAttempts)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	fileName := writeFile(t, "kfpc.yaml", `
start_step: 3
pipeline:
  bucket: my-bucket
images:
  trainer: registry.example.com/trainer:v2
training:
  workers: 4
output:
  graph: babyweight.dot
log:
  format: json
publish:
  endpoint: minio:9000
  retry_interval: 500ms
`)

	cfg, err := load(fileName, "", env(nil))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.StartStep)
	assert.Equal(t, "my-bucket", cfg.Pipeline.Bucket)
	assert.Equal(t, babyweight.DefaultProject, cfg.Pipeline.Project)
	assert.Equal(t, "registry.example.com/trainer:v2", cfg.Images.Trainer)
	assert.Equal(t, babyweight.DefaultImages().Preprocess, cfg.Images.Preprocess)
	assert.Equal(t, 4, cfg.Training.Workers)
	assert.Equal(t, 3, cfg.Training.ParameterServers)
	assert.Equal(t, "babyweight.dot", cfg.Output.Graph)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "minio:9000", cfg.Publish.Endpoint)
	assert.Equal(t, 500*time.Millisecond, cfg.Publish.RetryInterval)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		file   string
		dotEnv string
		env    map[string]string
	}{
		"unknown field": {
			file: "start_stpe: 2\n",
		},
		"bad yaml": {
			file: "start_step: [\n",
		},
		"bad int": {
			env: map[string]string{"KFP_START_STEP": "three"},
		},
		"bad bool": {
			env: map[string]string{"KFP_PUBLISH_USE_SSL": "maybe"},
		},
		"bad duration": {
			env: map[string]string{"KFP_PUBLISH_RETRY_INTERVAL": "soon"},
		},
		"missing dotenv": {
			dotEnv: filepath.Join(t.TempDir(), "missing.env"),
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			fileName := ""
			if tc.file != "" {
				fileName = writeFile(t, "kfpc.yaml", tc.file)
			}

			_, err := load(fileName, tc.dotEnv, env(tc.env))
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvErrorIsTyped(t *testing.T) {
	t.Parallel()

	_, err := load("", "", env(map[string]string{"KFP_TRAINING_WORKERS": "ten"}))
	assert.ErrorIs(t, err, ErrInvalidEnv)
	assert.ErrorContains(t, err, "KFP_TRAINING_WORKERS")
}

func TestEnvPrecedence(t *testing.T) {
	t.Parallel()

	fileName := writeFile(t, "kfpc.yaml", "start_step: 2\npipeline:\n  project: from-file\n")
	dotEnv := writeFile(t, "test.env", "KFP_START_STEP=4\nKFP_PROJECT=from-dotenv\nKFP_BUCKET=dotenv-bucket\n")

	cfg, err := load(fileName, dotEnv, env(map[string]string{
		"KFP_PROJECT":         "from-env",
		"KFP_PUBLISH_USE_SSL": "false",
	}))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.StartStep)
	assert.Equal(t, "from-env", cfg.Pipeline.Project)
	assert.Equal(t, "dotenv-bucket", cfg.Pipeline.Bucket)
	assert.False(t, cfg.Publish.UseSSL)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		edit    func(cfg *Config)
		wantErr error
	}{
		"default": {
			edit: func(*Config) {},
		},
		"skip all": {
			edit: func(cfg *Config) { cfg.StartStep = babyweight.SkipAll },
		},
		"start step zero": {
			edit:    func(cfg *Config) { cfg.StartStep = 0 },
			wantErr: ErrInvalidStartStep,
		},
		"start step seven": {
			edit:    func(cfg *Config) { cfg.StartStep = 7 },
			wantErr: ErrInvalidStartStep,
		},
		"log format": {
			edit:    func(cfg *Config) { cfg.Log.Format = "xml" },
			wantErr: ErrInvalidLogFormat,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tc.edit(cfg)

			err := cfg.Validate()
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestPublishValidate(t *testing.T) {
	t.Parallel()

	cfg := Default()

	err := cfg.Publish.Validate()
	require.ErrorIs(t, err, ErrPublishNotSet)
	assert.ErrorContains(t, err, "missing endpoint, bucket, credentials")

	cfg.Publish.Endpoint = "minio:9000"
	cfg.Publish.Bucket = "pipelines"
	cfg.Publish.AccessKey = "access"
	cfg.Publish.SecretKey = "secret"
	assert.NoError(t, cfg.Publish.Validate())
}
