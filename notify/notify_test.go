package notify

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type record struct {
	kind   Kind
	title  string
	detail string
}

type recorder struct {
	got []record
}

func (r *recorder) Notify(kind Kind, title, detail string) {
	r.got = append(r.got, record{kind, title, detail})
}

func TestMultiFansOut(t *testing.T) {
	t.Parallel()

	a, b := &recorder{}, &recorder{}
	m := Multi{a, b}

	m.Notify(Warning, "title", "detail")

	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1)
	assert.Equal(t, record{Warning, "title", "detail"}, a.got[0])
}

func TestLogNotifierLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n := NewLog(zerolog.New(&buf))

	n.Notify(Error, "oracle down", "no wallet connected")
	n.Notify(Success, "live mode enabled", "")

	out := buf.String()
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, "oracle down")
	assert.Contains(t, out, `"kind":"success"`)
}

func TestDiscardIsSilent(t *testing.T) {
	t.Parallel()

	// Must simply not panic.
	Discard{}.Notify(Info, "x", "y")
}
