package insight

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedGenerator struct {
	replies []string
	errs    []error
	prompts []string
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	i := len(g.prompts)
	g.prompts = append(g.prompts, prompt)
	var err error
	if i < len(g.errs) {
		err = g.errs[i]
	}
	reply := ""
	if i < len(g.replies) {
		reply = g.replies[i]
	} else if len(g.replies) > 0 {
		reply = g.replies[len(g.replies)-1]
	}
	return reply, err
}

func TestExtractJSON(t *testing.T) {
	got, err := ExtractJSON("Here you go:\n```json\n{\"a\":\"}{\",\"b\":{\"c\":\"\\\"}\"}} trailing {x}\n```")
	require.NoError(t, err)
	assert.Equal(t, `{"a":"}{","b":{"c":"\"}"}}`, got)

	_, err = ExtractJSON("sorry, no data")
	assert.ErrorIs(t, err, ErrNoJSON)

	_, err = ExtractJSON(`{"a": {"b": 1}`)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestWriterRetries(t *testing.T) {
	gen := &scriptedGenerator{
		errs:    []error{errors.New("quota")},
		replies: []string{"", "not json", `결과입니다 {"date":"x","headline":"H","issues":[{"tag":"PC","title":"T","desc":"D"}],"thumbnail":null}`},
	}
	w := &Writer{gen: gen, retries: 2}

	ins, err := w.Write(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Len(t, gen.prompts, 3)
	assert.Equal(t, "H", ins.Headline)
	assert.Empty(t, ins.Thumbnail)
	require.Len(t, ins.Issues, 1)
	assert.Equal(t, "PC", ins.Issues[0].Tag)
}

func TestWriterGivesUp(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"nope"}}
	w := &Writer{gen: gen, retries: 2}

	_, err := w.Write(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrNoJSON)
	assert.Len(t, gen.prompts, 3)
}
