package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnectionString(t *testing.T) {
	cs := ParseConnectionString("DefaultEndpointsProtocol=https;AccountName=app;AccountKey=c2Vj=cmV0==;junk;AccountKey=second")

	v, ok := cs.Get(ConnKey)
	require.True(t, ok)
	assert.Equal(t, "c2Vj=cmV0==", v, "first match wins and '=' in values survives")

	v, ok = cs.Get(ConnAccount)
	require.True(t, ok)
	assert.Equal(t, "app", v)

	_, ok = cs.Get("junk")
	assert.False(t, ok)
}

func TestParseConnectionStringNoKey(t *testing.T) {
	cs := ParseConnectionString("AccountName=app;Endpoint=localhost:9000")
	_, ok := cs.Get(ConnKey)
	assert.False(t, ok)

	assert.Empty(t, ParseConnectionString(""))
}

func TestConnectionStringApply(t *testing.T) {
	opts := Options{Endpoint: "localhost:9000", Region: "us-east-1", Account: "env", Secret: "env"}
	ParseConnectionString("Endpoint=https://s3.example.com/;AccountName=app;AccountKey=k;Region=eu-west-1").Apply(&opts)

	assert.Equal(t, "s3.example.com", opts.Endpoint)
	assert.True(t, opts.UseSSL)
	assert.Equal(t, "app", opts.Account)
	assert.Equal(t, "k", opts.Secret)
	assert.Equal(t, "eu-west-1", opts.Region)

	opts = Options{UseSSL: true}
	ParseConnectionString("DefaultEndpointsProtocol=http;Endpoint=minio:9000").Apply(&opts)
	assert.Equal(t, "minio:9000", opts.Endpoint)
	assert.False(t, opts.UseSSL)
}
