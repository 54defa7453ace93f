package prompts_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/JaimeStill/scribe/internal/prompts"
)

func TestParseStage(t *testing.T) {
	tests := []struct {
		in      string
		want    prompts.Stage
		wantErr bool
	}{
		{"classify", prompts.StageClassify, false},
		{"propose", prompts.StagePropose, false},
		{"enhance", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := prompts.ParseStage(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStageUnmarshalJSON(t *testing.T) {
	var cmd prompts.CreateCommand
	if err := json.Unmarshal([]byte(`{"name":"n","stage":"propose","instructions":"x"}`), &cmd); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cmd.Stage != prompts.StagePropose {
		t.Errorf("stage = %q, want propose", cmd.Stage)
	}

	err := json.Unmarshal([]byte(`{"stage":"finalize"}`), &cmd)
	if !errors.Is(err, prompts.ErrInvalidStage) {
		t.Errorf("err = %v, want ErrInvalidStage", err)
	}
}

func TestDefaultsAndFormats(t *testing.T) {
	for _, stage := range prompts.Stages() {
		t.Run(string(stage), func(t *testing.T) {
			if text, err := prompts.Default(stage); err != nil || text == "" {
				t.Errorf("Default(%s) = %q, %v", stage, text, err)
			}
			if text, err := prompts.Format(stage); err != nil || text == "" {
				t.Errorf("Format(%s) = %q, %v", stage, text, err)
			}
		})
	}

	if _, err := prompts.Default("bogus"); !errors.Is(err, prompts.ErrInvalidStage) {
		t.Errorf("Default(bogus) err = %v, want ErrInvalidStage", err)
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name   string
		tenant prompts.Tenant
		want   string
	}{
		{"configured", prompts.Tenant{ProjectName: "Acme", Domain: "a build tool"}, "Docs for Acme, a build tool."},
		{"fallbacks", prompts.Tenant{}, "Docs for the project, a software project."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := prompts.Render("Docs for {project}, {domain}.", tt.tenant)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompose(t *testing.T) {
	tenant := prompts.Tenant{ProjectName: "Acme", Domain: "a build tool"}

	got, err := prompts.Compose(prompts.StagePropose, "Write for {project}.", tenant, 4)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if !strings.HasPrefix(got, "Write for Acme.\n\n") {
		t.Errorf("prompt does not start with rendered instructions: %q", got[:40])
	}
	if !strings.Contains(got, "at most 4 entries") {
		t.Error("prompt missing proposal limit")
	}
	if strings.Contains(got, "{maxProposals}") {
		t.Error("placeholder left in prompt")
	}

	if _, err := prompts.Compose("bogus", "x", tenant, 1); !errors.Is(err, prompts.ErrInvalidStage) {
		t.Errorf("err = %v, want ErrInvalidStage", err)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{prompts.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("create: %w", prompts.ErrDuplicate), http.StatusConflict},
		{prompts.ErrInvalidStage, http.StatusBadRequest},
		{prompts.ErrEmpty, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := prompts.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
