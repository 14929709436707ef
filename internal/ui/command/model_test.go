package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line    string
		want    Command
		wantErr bool
	}{
		{line: "import a.eml  b.eml", want: Command{Name: Import, Args: []string{"a.eml", "b.eml"}}},
		{line: "I ~/Mail", want: Command{Name: Import, Args: []string{"~/Mail"}}},
		{line: "export", want: Command{Name: Export, Args: []string{}}},
		{line: "export /tmp/out", want: Command{Name: Export, Args: []string{"/tmp/out"}}},
		{line: "sort sender", want: Command{Name: Sort, Args: []string{"sender"}}},
		{line: "q", want: Command{Name: Quit, Args: []string{}}},
		{line: "import", wantErr: true},
		{line: "export a b", wantErr: true},
		{line: "sort colour", wantErr: true},
		{line: "sort", wantErr: true},
		{line: "quit now", wantErr: true},
		{line: "launch", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseUnknownIsTyped(t *testing.T) {
	_, err := Parse("frobnicate")
	assert.ErrorIs(t, err, ErrUnknown)
}
