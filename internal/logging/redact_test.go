package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRedactSecrets(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "producer --message hello", want: "producer --message hello"},
		{in: "env DB_PASSWORD=hunter2 producer", want: "env DB_PASSWORD=[redacted] producer"},
		{in: `sh -c 'API_TOKEN="abc123" run'`, want: `sh -c 'API_TOKEN="[redacted]" run'`},
		{in: "--client_secret: s3cr3t", want: "--client_secret: [redacted]"},
		{in: "TOKENIZER=fast", want: "TOKENIZER=[redacted]"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, RedactSecrets(tc.in), "input %q", tc.in)
	}
}
