package dsl

import (
	"context"
	"testing"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	b := New()

	b.Add("start").
		Info("Hello!").
		Image("https://example.com/hello.png").
		Go("role")

	b.Add("role").
		Section("About you").
		Question("What is your role?", "Manager", "IC").
		When("Manager", "split").
		When("IC", "end")

	b.Add("split").
		Randomizer("a", "end")

	b.Add("a").
		Question("Pick one", "X", "Y").
		Submit()

	b.Add("end").
		Info("Goodbye!")

	loader, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	records, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	want := []domain.Record{
		{QID: "start", Type: "image", QuestionText: "Hello!", ImageURL: "https://example.com/hello.png", BranchLogic: "default:role"},
		{QID: "role", Section: "About you", Type: "radio", QuestionText: "What is your role?", Options: "Manager|IC", BranchLogic: "Manager:split|IC:end"},
		{QID: "split", Type: "randomizer", BranchLogic: "random:a|end"},
		{QID: "a", Type: "radio", QuestionText: "Pick one", Options: "X|Y"},
		{QID: "end", Type: "image", QuestionText: "Goodbye!"},
	}
	if len(records) != len(want) {
		t.Fatalf("Expected %d records, got %d", len(want), len(records))
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("record %d:\n got %+v\nwant %+v", i, records[i], want[i])
		}
	}
}

func TestBuilder_AddReturnsExisting(t *testing.T) {
	b := New()
	b.Add("q1").Question("First?", "A")
	b.Add("q1").Go("submit")

	records, err := b.Records()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].BranchLogic != "default:submit" || records[0].Options != "A" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestBuilder_RoutingConflict(t *testing.T) {
	b := New()
	b.Add("q1").Question("Mixed?", "A").When("A", "submit").Go("submit")

	if _, err := b.Build(); err == nil {
		t.Fatal("Expected error for mixed routing")
	}
}

func TestBuilder_DanglingTarget(t *testing.T) {
	b := New()
	b.Add("q1").Question("Where?", "A").Go("nowhere")

	_, err := b.Build()
	if !domain.IsConfigurationError(err) {
		t.Fatalf("Expected configuration error, got %v", err)
	}
}
