package calcdoc

import (
	"strconv"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codecSamples = []string{
	"",
	"var x = 1;",
	`console.log("quotes ' and \" and \\ stay");`,
	"note: \"Temperature 25°C, µ-scale, 日本語\"",
	"line1\nline2\r\n\ttabbed",
}

func TestCodecs_RoundTrip(t *testing.T) {
	for _, c := range []Codec{HexCodec{}, Base64Codec{}} {
		t.Run(c.Name(), func(t *testing.T) {
			for _, s := range codecSamples {
				enc := c.Encode([]byte(s))
				dec, err := c.Decode(enc)
				require.NoError(t, err)
				assert.Equal(t, s, string(dec))
			}
		})
	}
}

func TestHexCodec_TransportSafe(t *testing.T) {
	enc := HexCodec{}.Encode([]byte(`<script>"'&</script>`))
	assert.Regexp(t, `^[0-9a-f]*$`, string(enc))
}

func TestCodecs_DecodeInvalid(t *testing.T) {
	_, err := HexCodec{}.Decode([]byte("zz"))
	require.Error(t, err)
	_, err = Base64Codec{}.Decode([]byte("!!!"))
	require.Error(t, err)
}

// The JavaScript decoder shipped in the bootstrap must invert Encode, including
// multi-byte UTF-8 sequences.
func TestCodecs_DecoderJS(t *testing.T) {
	for _, c := range []Codec{HexCodec{}, Base64Codec{}} {
		t.Run(c.Name(), func(t *testing.T) {
			vm := goja.New()
			if c.Name() == "base64" {
				_, err := vm.RunString(`function atob(s) { return __atob(s); }`)
				require.NoError(t, err)
				require.NoError(t, vm.Set("__atob", func(s string) string {
					b, err := Base64Codec{}.Decode([]byte(s))
					if err != nil {
						panic(vm.NewGoError(err))
					}
					// atob yields one UTF-16 unit per byte.
					units := make([]rune, len(b))
					for i, x := range b {
						units[i] = rune(x)
					}
					return string(units)
				}))
			}
			decode, err := vm.RunString("(" + c.DecoderJS() + ")")
			require.NoError(t, err)
			fn, ok := goja.AssertFunction(decode)
			require.True(t, ok)
			for _, s := range codecSamples {
				res, err := fn(goja.Undefined(), vm.ToValue(string(c.Encode([]byte(s)))))
				require.NoError(t, err)
				assert.Equal(t, s, res.String(), strconv.Quote(s))
			}
		})
	}
}

func TestCodecByName(t *testing.T) {
	for name, want := range map[string]string{"": "hex", "hex": "hex", "base64": "base64"} {
		c, err := CodecByName(name)
		require.NoError(t, err)
		assert.Equal(t, want, c.Name())
	}
	_, err := CodecByName("rot13")
	require.Error(t, err)
}
