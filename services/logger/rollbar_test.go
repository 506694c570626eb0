package logsvc

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/lessonplan/core"
	"github.com/trezcool/lessonplan/core/user"
)

func newTestLogger(buf *bytes.Buffer) *RollbarLogger {
	conf := &core.Config{Env: "TEST", TestMode: true}
	return NewRollbarLogger(log.New(buf, "", 0), "tests", conf)
}

func TestRollbarLogger_prepare(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)
	err := errors.New("boom")

	got := l.prepare("msg", []interface{}{
		err,
		map[string]interface{}{"configuration_id": 1},
		user.User{ID: "u1"},
		user.User{ID: "u2"},
	})

	assert.Equal(t, []interface{}{
		"msg",
		err,
		map[string]interface{}{"component": "tests", "configuration_id": 1},
	}, got)
}

func TestRollbarLogger_print(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	l.Info("schedule generated", map[string]interface{}{"events": 3}, user.User{ID: "u1"})

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[INFO] tests: schedule generated"), out)
	assert.Contains(t, out, "events:3")
	assert.NotContains(t, out, "u1")
}
