package logic

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/cuihairu/faultline/internal/ingest"
	"github.com/stretchr/testify/require"
)

func TestFingerprintHashesFileBodies(t *testing.T) {
	payload := func(body string) FaultPayload {
		return FaultPayload{
			Form:  map[string]string{"title": "A", "chiefdomId": "1"},
			Files: []ingest.File{{Name: "photo.jpg", ContentType: "image/jpeg", Body: bytes.NewReader([]byte(body))}},
		}
	}
	a := payload("first")
	ha, err := a.fingerprint()
	require.NoError(t, err)

	rest, err := io.ReadAll(a.Files[0].Body)
	require.NoError(t, err)
	require.Equal(t, "first", string(rest), "body must be rewound for ingestion")

	hb, err := payload("first").fingerprint()
	require.NoError(t, err)
	require.Equal(t, ha, hb)

	hc, err := payload("second").fingerprint()
	require.NoError(t, err)
	require.NotEqual(t, ha, hc)
}

func TestFingerprintFallsBackToNameForStreams(t *testing.T) {
	p := FaultPayload{Files: []ingest.File{{Name: "photo.jpg", Body: io.NopCloser(strings.NewReader("x"))}}}
	h1, err := p.fingerprint()
	require.NoError(t, err)
	p.Files[0].Body = io.NopCloser(strings.NewReader("y"))
	h2, err := p.fingerprint()
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}
