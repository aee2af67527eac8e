package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/curriculum/core"
)

func TestRollbarLogger_prepare(t *testing.T) {
	l := RollbarLogger{}
	err := errors.New("boom")

	args := l.prepare("msg", []interface{}{err, Fields{"course_id": "CS101"}, map[string]interface{}{"rows": 2}})
	assert.Equal(t, []interface{}{
		"msg",
		err,
		map[string]interface{}{"course_id": "CS101", "rows": 2},
	}, args)

	assert.Equal(t, []interface{}{"msg"}, l.prepare("msg", nil))
}

func TestRollbarLogger_print(t *testing.T) {
	var buf bytes.Buffer
	l := RollbarLogger{std: log.New(&buf, "", 0)}
	l.print("saving mapping", []interface{}{errors.New("boom"), Fields{"course_id": "CS101"}})

	out := buf.String()
	assert.Contains(t, out, "saving mapping\n")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "course_id:CS101")
}

func Test_reportingEnabled(t *testing.T) {
	tests := []struct {
		name  string
		token string
		debug bool
		test  bool
		want  bool
	}{
		{name: "no token", want: false},
		{name: "token", token: "tok", want: true},
		{name: "token, debug", token: "tok", debug: true, want: false},
		{name: "token, test mode", token: "tok", test: true, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &core.Config{RollbarToken: tt.token, Debug: tt.debug, TestMode: tt.test}
			assert.Equal(t, tt.want, reportingEnabled(conf))
		})
	}
}
