package extract_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vhrodrigues/notinha/internal/extract"
)

const sampleKey = "35240805123456000190650010000001231000001234"

func TestKeyFromPayload(t *testing.T) {
	type testCase struct {
		name        string
		payload     string
		want        string
		wantErr     bool
		keyNotFound bool
	}

	tests := []testCase{
		{
			name:    "BareKey",
			payload: sampleKey,
			want:    sampleKey,
		},
		{
			name:    "URLWithChNFeParam",
			payload: "https://www.fazenda.sp.gov.br/nfce/consulta?chNFe=" + sampleKey,
			want:    sampleKey,
		},
		{
			name:    "NFCeQRPipeFormat",
			payload: "https://www.fazenda.sp.gov.br/nfce/qrcode?p=" + sampleKey + "|2|1|1|ABC123",
			want:    sampleKey,
		},
		{
			name:    "KeyEmbeddedInText",
			payload: "NFC-e " + sampleKey + " via leitor",
			want:    sampleKey,
		},
		{
			name:    "KeyInURLPath",
			payload: "https://portal.fazenda.gov.br/nfce/" + sampleKey,
			want:    sampleKey,
		},
		{
			name:        "URLWithoutKey",
			payload:     "https://portal.fazenda.gov.br/nfce/consulta?sessao=xyz",
			wantErr:     true,
			keyNotFound: true,
		},
		{
			name:    "NotAKeyNorURL",
			payload: "isto nao e uma chave",
			wantErr: true,
		},
		{
			name:    "TooShortDigitRun",
			payload: "123456789",
			wantErr: true,
		},
		{
			name:    "Empty",
			payload: "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extract.KeyFromPayload(tt.payload)

			if tt.wantErr {
				require.Error(t, err)
				if tt.keyNotFound {
					assert.True(t, extract.IsKeyNotFound(err))
				} else {
					assert.True(t, extract.IsMalformed(err))
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyFromBody(t *testing.T) {
	t.Run("LabelledKeyWithSpacing", func(t *testing.T) {
		body := `<span>Chave de acesso</span><span class="chave">` +
			"3524 0805 1234 5600 0190 6500 1000 0000 1231 0000 1234" + `</span>`

		// The labelled form groups digits with spaces; they are stripped.
		got, err := extract.KeyFromBody(body)
		require.NoError(t, err)
		assert.Equal(t, "35240805123456000190650010000000123100001234", got)
	})

	t.Run("BareDigitRun", func(t *testing.T) {
		got, err := extract.KeyFromBody("consulta da nota " + sampleKey + " autorizada")
		require.NoError(t, err)
		assert.Equal(t, sampleKey, got)
	})

	t.Run("NoKey", func(t *testing.T) {
		_, err := extract.KeyFromBody("<html><body>pagina sem chave</body></html>")
		require.Error(t, err)
		assert.True(t, extract.IsKeyNotFound(err))
	})
}

func TestSyntheticKey(t *testing.T) {
	key := extract.SyntheticKey("12.345.678/0001-95", "4242", "1")

	assert.Equal(t, "SYN-12345678000195-4242-1", key)
	assert.True(t, extract.IsSyntheticKey(key))
	assert.False(t, extract.IsAccessKey(key))
	assert.False(t, extract.IsTimestampKey(key))

	// Deterministic: same document fields, same key.
	assert.Equal(t, key, extract.SyntheticKey("12345678000195", "4242", "1"))
}

func TestTimestampKey(t *testing.T) {
	now := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	key := extract.TimestampKey(now)

	assert.True(t, extract.IsTimestampKey(key))
	assert.False(t, extract.IsSyntheticKey(key))
	assert.False(t, extract.IsAccessKey(key))
}

func TestIsAccessKey(t *testing.T) {
	assert.True(t, extract.IsAccessKey(sampleKey))
	assert.False(t, extract.IsAccessKey(sampleKey+"5"))
	assert.False(t, extract.IsAccessKey(sampleKey[:43]))
	assert.False(t, extract.IsAccessKey("SYN-123-1-1"))
}
