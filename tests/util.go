package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/trezcool/curriculum/core"
	"github.com/trezcool/curriculum/core/mapping"
	logsvc "github.com/trezcool/curriculum/services/logger"
)

func NewConfig() *core.Config {
	return &core.Config{
		AppName:  "Curriculum",
		Env:      "TEST",
		Build:    "test",
		TestMode: true,
		Server: core.ServerConfig{
			Host:            "localhost",
			Address:         ":8000",
			ShutdownTimeout: time.Second,
			AllowedOrigins:  []string{"*"},
			DisableReqLogs:  true,
		},
		Database: core.DatabaseConfig{Engine: "memory"},
		Email: core.EmailConfig{
			DefaultFrom:      "Curriculum <noreply@curriculum.test>",
			NoticeRecipients: []string{"Dean <dean@curriculum.test>"},
		},
		Client: core.ClientConfig{BaseURL: "http://localhost:8000", Timeout: time.Second},
		Editor: core.EditorConfig{NoticeTTL: mapping.DefaultNoticeTTL},
	}
}

func NewLogger(conf *core.Config) *logsvc.RollbarLogger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

// CreateCourse stores a course with the given outcomes and mapping.
func CreateCourse(
	t *testing.T,
	repo mapping.Repository,
	id, title string,
	outcomes []string,
	po, pso []mapping.Record,
	updatedAt ...time.Time,
) mapping.Course {
	tstamp := time.Now().UTC()
	if len(updatedAt) > 0 {
		tstamp = updatedAt[0].UTC()
	}
	ctx := context.Background()

	course, err := repo.SaveCourse(ctx, mapping.Course{
		ID:        id,
		Title:     title,
		Outcomes:  outcomes,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	if len(po) > 0 || len(pso) > 0 {
		if err = repo.ReplaceMapping(ctx, id, po, pso, tstamp); err != nil {
			t.Fatalf("createCourse() failed: %v", err)
		}
	}
	return course
}
