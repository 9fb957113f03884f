package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/api", c.APIPrefix)
	assert.Equal(t, "todo-events", c.KafkaTopic)
	assert.Equal(t, 60*time.Minute, c.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, c.RefreshTTL())
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "todo-api.yaml")
	body := []byte("http_port: \"9090\"\ntimezone: Asia/Tokyo\nkafka_brokers: [\"a:9092\", \"b:9092\"]\npage_size: 50\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	t.Setenv("PAGE_SIZE", "10")
	t.Setenv("KAFKA_BROKERS", "")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", c.HTTPPort)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.KafkaBrokers)
	assert.Equal(t, 10, c.PageSize, "env wins over file")
	assert.Equal(t, "Asia/Tokyo", c.Location().String())
}

func TestGetSliceEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " k1:9092 , ,k2:9092")
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, getSliceEnv("KAFKA_BROKERS", nil))

	t.Setenv("KAFKA_BROKERS", " , ")
	assert.Equal(t, []string{"x"}, getSliceEnv("KAFKA_BROKERS", []string{"x"}))
}

func TestLocationFallsBackToUTC(t *testing.T) {
	c := defaults()
	c.TimeZone = "Nowhere/Invalid"
	assert.Equal(t, time.UTC, c.Location())
}

func TestLocationNeverReturnsLocal(t *testing.T) {
	c := defaults()
	for _, name := range []string{"Local", "local", "", "  "} {
		c.TimeZone = name
		loc := c.Location()
		assert.Equal(t, time.UTC, loc, name)
		assert.Equal(t, "UTC", loc.String(), name)
	}

	c.TimeZone = " America/New_York "
	assert.Equal(t, "America/New_York", c.Location().String())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
