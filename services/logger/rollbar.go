package logsvc

import (
	"context"
	"fmt"
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/admissions/core"
)

// RollbarLogger prints every entry to std and reports it to Rollbar when enabled.
// Each logger owns its Rollbar client and attaches the person per item.
type RollbarLogger struct {
	std      *log.Logger
	client   *rollbar.Client
	hasToken bool
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	client := rollbar.NewAsync(conf.RollbarToken, conf.Env, conf.Build, conf.Server.Host, "")
	client.SetStackTracer(errors.StackTracer)

	l := &RollbarLogger{std: std, client: client, hasToken: conf.RollbarToken != ""}
	l.Enable(!conf.TestMode)
	return l
}

// Enable turns Rollbar reporting on or off. Reporting stays off without a token.
func (l *RollbarLogger) Enable(enabled bool) {
	l.client.SetEnabled(enabled && l.hasToken)
}

// item is what gets reported for one log entry.
type item struct {
	ctx    context.Context
	err    error
	extras map[string]interface{}
}

// collect sorts the args of an entry: the first error is reported as such, maps are merged into the extras,
// the first core.Principal becomes the Rollbar person and anything else is added to the extras as text.
func collect(msg string, args []interface{}) item {
	it := item{ctx: context.Background(), extras: map[string]interface{}{"message": msg}}
	var personSet bool
	for i, arg := range args {
		switch v := arg.(type) {
		case core.Principal:
			if !personSet {
				it.ctx = rollbar.NewPersonContext(it.ctx, &rollbar.Person{Id: v.Key(), Username: v.Name})
				personSet = true
			}
		case error:
			if it.err == nil {
				it.err = v
			} else {
				it.extras[fmt.Sprintf("error_%d", i)] = v.Error()
			}
		case map[string]interface{}:
			for key, val := range v {
				it.extras[key] = val
			}
		default:
			it.extras[fmt.Sprintf("arg_%d", i)] = fmt.Sprintf("%+v", v)
		}
	}
	return it
}

func (l *RollbarLogger) log(level, label, msg string, args []interface{}) {
	it := collect(msg, args)
	if it.err != nil {
		l.client.ErrorWithExtrasAndContext(it.ctx, level, it.err, it.extras)
	} else {
		l.client.MessageWithExtrasAndContext(it.ctx, level, msg, it.extras)
	}

	l.std.Printf("%s: %s", label, msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	l.log(rollbar.DEBUG, "DEBUG", msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.log(rollbar.INFO, "INFO", msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	l.log(rollbar.WARN, "WARN", msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	l.log(rollbar.ERR, "ERROR", msg, args)
}

// Fatal reports the entry, waits for the pending Rollbar items then exits.
func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, "FATAL", msg, args)
	_ = l.client.Close()
	l.std.Fatal(msg)
}
