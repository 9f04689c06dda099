package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commentPayload struct {
	Comments []struct {
		SpeakerName      string `json:"speaker_name"`
		SpeakerAttribute string `json:"speaker_attribute"`
		Content          string `json:"content"`
	} `json:"comments"`
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"uppercase fence", "```JSON\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  \n{\"a\":1}\n ", `{"a":1}`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, StripFences(c.in))
		})
	}
}

func TestParseModelJSON_Valid(t *testing.T) {
	raw := "```json\n{\"comments\":[{\"speaker_name\":\"おでん\",\"speaker_attribute\":\"金欠学生\",\"content\":\"これ神\"}]}\n```"

	var payload commentPayload
	require.NoError(t, ParseModelJSON(raw, &payload))
	require.Len(t, payload.Comments, 1)
	assert.Equal(t, "おでん", payload.Comments[0].SpeakerName)
	assert.Equal(t, "金欠学生", payload.Comments[0].SpeakerAttribute)
}

func TestParseModelJSON_RepairsTrailingComma(t *testing.T) {
	raw := `{"comments":[{"speaker_name":"a","speaker_attribute":"b","content":"c"},]}`

	var payload commentPayload
	require.NoError(t, ParseModelJSON(raw, &payload))
	require.Len(t, payload.Comments, 1)
}

func TestParseModelJSON_Empty(t *testing.T) {
	var payload commentPayload
	assert.Error(t, ParseModelJSON("", &payload))
	assert.Error(t, ParseModelJSON("```json\n```", &payload))
}

func TestParseModelJSON_Garbage(t *testing.T) {
	var payload commentPayload
	err := ParseModelJSON("sorry, I cannot help with that", &payload)
	assert.Error(t, err)
}
