package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAISynthesize(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Write([]byte("fake-mp3-bytes"))
	}))
	defer srv.Close()

	synth, err := NewOpenAISynthesizer(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
	})
	require.NoError(t, err)

	audio, err := synth.Synthesize(context.Background(), "The answer is chlorophyll.")
	require.NoError(t, err)

	assert.Equal(t, []byte("fake-mp3-bytes"), audio.Data)
	assert.Equal(t, "mp3", audio.Format)

	assert.Equal(t, "tts-1", gotBody["model"])
	assert.Equal(t, "alloy", gotBody["voice"])
	assert.Equal(t, "The answer is chlorophyll.", gotBody["input"])
	assert.Equal(t, "mp3", gotBody["response_format"])
}

func TestOpenAISynthesize_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"server error","type":"server_error"}}`))
	}))
	defer srv.Close()

	synth, err := NewOpenAISynthesizer(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
	})
	require.NoError(t, err)

	_, err = synth.Synthesize(context.Background(), "hello")
	require.Error(t, err)

	var synthErr *ErrSynthesisFailed
	require.ErrorAs(t, err, &synthErr)
	assert.Equal(t, "openai", synthErr.Provider)
}

func TestNewOpenAISynthesizer_RequiresKey(t *testing.T) {
	_, err := NewOpenAISynthesizer(OpenAIConfig{})
	require.Error(t, err)
}

func TestNewOpenAISynthesizer_VoiceOverride(t *testing.T) {
	synth, err := NewOpenAISynthesizer(OpenAIConfig{APIKey: "k", Voice: "nova"})
	require.NoError(t, err)
	assert.Equal(t, "nova", synth.VoiceID())
}
